package kvstore

import "strings"

// Multi-path storage keys.
const (
	KeyLearningPaths     = "learning-paths"
	KeyActivePathID      = "active-path-id"
	KeyPathManager       = "path-manager"
	KeyImportedQuestions = "imported-questions"
)

// Keys written by the single-path layout that predates learning paths.
// They are read once by the migration and removed afterwards.
const (
	KeyLegacyLearningPath          = "learning-path"
	KeyLegacyCustomModules         = "custom-modules"
	KeyLegacyQuizAttempts          = "quiz-attempts"
	KeyLegacyQuizAttemptsBackup    = "quiz-attempts-backup"
	KeyLegacyQuizAttemptsTimestamp = "quiz-attempts-timestamp"
	KeyLegacyCertificates          = "certificates"
	KeyLegacyCustomQuestions       = "custom-module-questions"
)

// Prefixes of keys that carry a suffix (a path id or a timestamp).
const (
	PrefixCustomModules   = "custom-modules-"
	PrefixQuizAttempts    = "quiz-attempts-"
	PrefixCertificates    = "certificates-"
	PrefixCustomQuestions = "custom-questions-"
	PrefixLegacyBackup    = "legacy-backup-"
)

var exactKeys = []string{
	KeyLearningPaths,
	KeyActivePathID,
	KeyPathManager,
	KeyImportedQuestions,
	KeyLegacyLearningPath,
	KeyLegacyCustomModules,
	KeyLegacyQuizAttempts,
	KeyLegacyQuizAttemptsBackup,
	KeyLegacyQuizAttemptsTimestamp,
	KeyLegacyCertificates,
	KeyLegacyCustomQuestions,
}

var prefixes = []string{
	PrefixCustomModules,
	PrefixQuizAttempts,
	PrefixCertificates,
	PrefixCustomQuestions,
	PrefixLegacyBackup,
}

// LegacyKeys returns the keys of the single-path layout. The global
// imported-questions key is shared with the current layout and is not
// included.
func LegacyKeys() []string {
	return []string{
		KeyLegacyLearningPath,
		KeyLegacyCustomModules,
		KeyLegacyQuizAttempts,
		KeyLegacyQuizAttemptsBackup,
		KeyLegacyQuizAttemptsTimestamp,
		KeyLegacyCertificates,
		KeyLegacyCustomQuestions,
	}
}

// IsLegacyKey reports whether key belongs to the single-path layout.
func IsLegacyKey(key string) bool {
	for _, k := range LegacyKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// IsAppKey reports whether key belongs to this application's namespace,
// either by exact match or by one of the documented prefixes.
func IsAppKey(key string) bool {
	for _, k := range exactKeys {
		if k == key {
			return true
		}
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) && len(key) > len(p) {
			return true
		}
	}
	return false
}
