package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	platformerrors "cat-tagline-go/internal/platform/errors"
)

// CredentialEnvVar is the environment variable holding the generation API key.
const CredentialEnvVar = "OPENAI_API_KEY"

// ErrMissingCredential is returned when no source in the chain yields a key.
var ErrMissingCredential = errors.New("OPENAI_API_KEY is required")

// Credential is the bearer secret for the generation API. String never
// prints the key itself.
type Credential struct {
	Key    string
	Source string
}

func (c Credential) String() string {
	return fmt.Sprintf("credential(source=%s, key=%s)", c.Source, Redact(c.Key))
}

// Redact masks all but the last four characters.
func Redact(key string) string {
	if key == "" {
		return "<empty>"
	}
	if len(key) <= 8 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// CredentialSource yields a key or "" when it has none.
type CredentialSource interface {
	Name() string
	Lookup() (string, error)
}

// Explicit is a key passed directly by the caller.
type Explicit string

func (e Explicit) Name() string            { return "explicit" }
func (e Explicit) Lookup() (string, error) { return strings.TrimSpace(string(e)), nil }

// EnvSource reads the key from the process environment.
type EnvSource struct {
	Var       string
	LookupEnv func(string) (string, bool)
}

func (s EnvSource) Name() string { return "env" }

func (s EnvSource) Lookup() (string, error) {
	lookup := s.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	name := s.Var
	if name == "" {
		name = CredentialEnvVar
	}
	v, _ := lookup(name)
	return strings.TrimSpace(v), nil
}

// SecretsFileSource reads a flat YAML map (KEY: value). A missing file is not
// an error.
type SecretsFileSource struct {
	Path string
	Key  string
}

func (s SecretsFileSource) Name() string { return "secrets" }

func (s SecretsFileSource) Lookup() (string, error) {
	if s.Path == "" {
		return "", nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	secrets := map[string]string{}
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return "", fmt.Errorf("parse secrets file: %w", err)
	}
	key := s.Key
	if key == "" {
		key = CredentialEnvVar
	}
	return strings.TrimSpace(secrets[key]), nil
}

// PromptSource is the key typed into the web page for this request.
type PromptSource string

func (p PromptSource) Name() string            { return "prompt" }
func (p PromptSource) Lookup() (string, error) { return strings.TrimSpace(string(p)), nil }

// CredentialChain tries each source in order.
type CredentialChain []CredentialSource

// Resolve returns the first non-empty key. A source failing to read is
// reported as a config error rather than skipped.
func (chain CredentialChain) Resolve() (Credential, error) {
	for _, src := range chain {
		key, err := src.Lookup()
		if err != nil {
			return Credential{}, platformerrors.Wrap(platformerrors.KindConfig, "credential:"+src.Name(), "credential source failed", err)
		}
		if key != "" {
			return Credential{Key: key, Source: src.Name()}, nil
		}
	}
	return Credential{}, platformerrors.Wrap(platformerrors.KindConfig, "credential", "no credential configured", ErrMissingCredential)
}

// LocalChain is used by the CLI and by constructors: explicit, then env.
func LocalChain(explicit string, lookupEnv func(string) (string, bool)) CredentialChain {
	return CredentialChain{
		Explicit(explicit),
		EnvSource{Var: CredentialEnvVar, LookupEnv: lookupEnv},
	}
}

// WebChain is used by the web UI. Locally it behaves like LocalChain; when
// deployed it falls back to the secrets file and then the prompted key.
func WebChain(cfg *Config, explicit, prompted string, lookupEnv func(string) (string, bool)) CredentialChain {
	chain := LocalChain(explicit, lookupEnv)
	if cfg != nil && cfg.Web.Deployed {
		chain = append(chain,
			SecretsFileSource{Path: cfg.Web.SecretsFile, Key: CredentialEnvVar},
			PromptSource(prompted),
		)
	}
	return chain
}
