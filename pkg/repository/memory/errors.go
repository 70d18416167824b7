package memory

import "github.com/secmon-lab/cottus/pkg/domain/interfaces"

var (
	ErrNotFound        = interfaces.ErrNotFound
	ErrDuplicateAPIKey = interfaces.ErrDuplicateAPIKey
)
