package cli

var (
	ValidatePersona = validatePersona
	GetIndexConfig  = getIndexConfig
	SplitOrigins    = splitOrigins
	LoadDotEnv      = loadDotEnv
)
