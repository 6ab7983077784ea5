package random

func InsecureString(length int) (s string) {
	const Options = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	insecureMu.Lock()
	defer insecureMu.Unlock()

	var parts = make([]byte, length)
	for index := range parts {
		parts[index] = Options[insecureSrc.IntN(len(Options))]
	}

	return string(parts)
}
