package synth

import (
	"crypto/md5"
	"fmt"
)

// namespace is the key prefix for all cached synthesis artifacts.
const namespace = "tts/"

// Key derives the content-addressed object key for a synthesis request:
// tts/subject_{subjectID}_{md5(text+language)}.mp3. Deterministic across
// processes and restarts; collisions are an accepted low-probability risk.
func Key(text, language string, subjectID int64) string {
	sum := md5.Sum([]byte(text + language))
	return fmt.Sprintf("%ssubject_%d_%x.mp3", namespace, subjectID, sum)
}

// subjectPrefix scopes listing and deletion to one subject. The language is
// inside the hash, so per-language prefixes do not exist.
func subjectPrefix(subjectID int64) string {
	return fmt.Sprintf("%ssubject_%d_", namespace, subjectID)
}
