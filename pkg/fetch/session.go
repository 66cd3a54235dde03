package fetch

import (
	"encoding/base64"
	"errors"
	"strings"
)

// WorkflowKind identifies which pair of endpoints a run talks to.
type WorkflowKind string

const (
	KindCnr   WorkflowKind = "cnr"
	KindCourt WorkflowKind = "court"
)

// Session is one in-flight challenge/response exchange. The ID is an opaque
// capability issued by the backend and is never parsed or built locally.
type Session struct {
	ID             string       `json:"session_id"`
	ChallengeImage []byte       `json:"-"`
	Kind           WorkflowKind `json:"workflow"`

	// CaseType is only set for court runs; the backend does not keep it
	// between init and submit.
	CaseType CaseType `json:"case_type,omitempty"`
}

// ChallengeImageBase64 returns the image in the encoding the backend sent it.
func (s Session) ChallengeImageBase64() string {
	return base64.StdEncoding.EncodeToString(s.ChallengeImage)
}

func newSession(kind WorkflowKind, id, image string, caseType CaseType) (Session, error) {
	if id == "" {
		return Session{}, errors.New("challenge response is missing session_id")
	}
	img, err := decodeImage(image)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: id, ChallengeImage: img, Kind: kind, CaseType: caseType}, nil
}

func decodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";base64,"); i >= 0 {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, errors.New("challenge response is missing captcha_image")
	}
	img, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.New("captcha_image is not valid base64")
	}
	return img, nil
}
