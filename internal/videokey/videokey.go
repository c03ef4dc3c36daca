// Package videokey derives the candidate and question a recording belongs
// to from its storage key or file name.
package videokey

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/interview-gaze/go-analyzer/internal/session"
)

// DefaultQuestion is used when neither the caller nor the key names one.
const DefaultQuestion = "Q1"

// patterns are tried in order; group 1 is the user, group 2 the question.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`interview_(?:video|audio)/([^/]+)/([^/]+)/`),
	regexp.MustCompile(`/([^/]+)/([^/]+)/[^/]*\.(?:mp4|webm|mov)$`),
}

// Parse extracts user and question ids from keys like
// "team12/interview_video/7/1/answer.webm" or file names like "7_1.webm".
func Parse(key string) (userID, questionID string, ok bool) {
	key = strings.ReplaceAll(key, "\\", "/")
	for _, re := range patterns {
		if m := re.FindStringSubmatch(key); m != nil {
			return m[1], m[2], true
		}
	}

	name := path.Base(key)
	name = strings.TrimSuffix(name, path.Ext(name))
	parts := strings.Split(name, "_")
	if len(parts) >= 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], parts[1], true
	}
	return "", "", false
}

// Resolve builds the session metadata for key. Explicit ids win over parsed
// ones; a missing user gets a generated "api_user_" id and a missing
// question DefaultQuestion.
func Resolve(key, userID, questionID string) session.Meta {
	pu, pq, _ := Parse(key)
	if userID == "" {
		userID = pu
	}
	if questionID == "" {
		questionID = pq
	}
	if userID == "" {
		userID = "api_user_" + uuid.NewString()[:8]
	}
	if questionID == "" {
		questionID = DefaultQuestion
	}
	return session.Meta{VideoKey: key, UserID: userID, QuestionID: questionID}
}
