// Package config resolves quire's settings.
//
// Values come from built-in defaults, then an optional config file, then the
// environment. Every key can be overridden with a QUIRE_ prefixed variable
// (nested keys use underscores, e.g. QUIRE_AI_MODEL). A handful of legacy
// names such as OPENAI_API_KEY and DOC_MAX_WORKERS are honored as well.
package config
