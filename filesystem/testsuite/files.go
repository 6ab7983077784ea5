package testsuite

import (
	"github.com/pluto-org-co/afqhcp/random"
)

func GenerateLocation(nParts int) (location []string) {
	if nParts == 0 {
		nParts = 1
	}

	location = make([]string, 0, nParts)
	for range nParts {
		location = append(location, random.InsecureString(5))
	}
	return location
}

func GenerateLocations(n int) (locations [][]string) {
	locations = make([][]string, 0, n)
	for range n {
		locations = append(locations, GenerateLocation(random.InsecureInt(5)))
	}

	return locations
}
