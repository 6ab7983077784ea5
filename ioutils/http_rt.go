// Copyright (C) 2025 ZedCloud Org.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package ioutils

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Retries throttled (429), unavailable (503) and failed round trips.
// Requests whose body can't be rewound are sent only once.
type RetryTransport struct {
	once        sync.Once
	Parent      http.RoundTripper
	MaxAttempts int
	MinSleep    time.Duration
}

func NewRetryTransport(parent http.RoundTripper, maxAttempts int, minSleep time.Duration) (rt *RetryTransport) {
	return &RetryTransport{
		Parent:      parent,
		MaxAttempts: maxAttempts,
		MinSleep:    minSleep,
	}
}

func retryable(res *http.Response) (ok bool) {
	return res.StatusCode == http.StatusTooManyRequests || res.StatusCode == http.StatusServiceUnavailable
}

func (r *RetryTransport) RoundTrip(req *http.Request) (res *http.Response, err error) {
	r.once.Do(func() {
		if r.Parent == nil {
			r.Parent = http.DefaultTransport
		}
		if r.MaxAttempts < 1 {
			r.MaxAttempts = 1
		}
	})

	replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil

	for attempt := range r.MaxAttempts {
		if attempt > 0 {
			if req.GetBody != nil {
				req.Body, err = req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("failed to rewind request body: %w", err)
				}
			}

			select {
			case <-req.Context().Done():
				return nil, fmt.Errorf("context error during retry: %w", req.Context().Err())
			case <-time.After((1 + time.Duration(attempt)) * r.MinSleep):
			}
		}

		res, err = r.Parent.RoundTrip(req)
		last := attempt == r.MaxAttempts-1 || !replayable
		switch {
		case err != nil:
			if last {
				return nil, fmt.Errorf("failed to execute request: %w", err)
			}
		case retryable(res):
			if last {
				return res, nil
			}
			res.Body.Close()
		default:
			return res, nil
		}
	}
	return nil, fmt.Errorf("max attempts exceeded: %d", r.MaxAttempts)
}

var _ http.RoundTripper = (*RetryTransport)(nil)
