package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces documind environment variables, e.g.
// DOCUMIND_RAG_CHUNK_SIZE overrides rag.chunk_size.
const envPrefix = "DOCUMIND_"

// envAliases maps well-known unprefixed variables onto config paths, so a
// plain GOOGLE_API_KEY in .env works without the DOCUMIND_ prefix.
var envAliases = map[string]string{
	"GOOGLE_API_KEY": "model.api_key",
	"OPENAI_API_KEY": "embedder.api_key",
}

// Load builds the configuration from defaults and environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := loadEnvAliases(k); err != nil {
		return nil, err
	}
	if err := loadEnvironment(k); err != nil {
		return nil, err
	}
	return unmarshalAndValidate(k)
}

func loadEnvAliases(k *koanf.Koanf) error {
	err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			if path, ok := envAliases[key]; ok {
				return path, value
			}
			return "", nil
		},
	}), nil)
	if err != nil {
		return fmt.Errorf("failed to load environment aliases: %w", err)
	}
	return nil
}

func loadEnvironment(k *koanf.Koanf) error {
	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return transformEnvKey(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil)
	if err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

// transformEnvKey converts an environment variable name to a koanf path. The
// first segment is the section; the rest stays a single snake_case field,
// e.g. RAG_CHUNK_SIZE -> rag.chunk_size.
func transformEnvKey(s string) string {
	s = strings.ToLower(s)
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' })
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + strings.Join(parts[1:], "_")
}

// sensitiveStringDecodeHook converts plain strings into SensitiveString
// fields during unmarshal.
func sensitiveStringDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(SensitiveString("")) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return SensitiveString(v), nil
	case []byte:
		return SensitiveString(v), nil
	default:
		return data, nil
	}
}

func unmarshalAndValidate(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				sensitiveStringDecodeHook,
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return nil, fmt.Errorf(
			"configuration validation failed: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			cfg.RAG.ChunkOverlap,
			cfg.RAG.ChunkSize,
		)
	}
	return &cfg, nil
}
