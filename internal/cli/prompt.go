package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ecourts-fetcher-be/pkg/fetch"
)

// saveChallenge writes the CAPTCHA image where the user can open it.
func saveChallenge(dir string, s fetch.Session) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("captcha_%s_%s.png", s.Kind, sanitize(s.ID))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, s.ChallengeImage, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// readAnswer reads one non-empty line. EOF before an answer is an error.
func readAnswer(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		if answer := strings.TrimSpace(line); answer != "" {
			return answer, nil
		}
		if errors.Is(err, io.EOF) {
			return "", errors.New("no captcha answer given")
		}
		if err != nil {
			return "", err
		}
	}
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
