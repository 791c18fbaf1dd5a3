// Package credentials resolves access keys for object-store backends.
//
// Keys are looked up in order: static keys in the backend config section,
// a JSON secret in AWS Secrets Manager named by "secret_id", then
// environment variables. When nothing is found the zero Static is
// returned and backends fall back to their SDK default chain.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/config"
	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
)

// AWS error codes returned by Secrets Manager.
const (
	ResourceNotFoundException = "ResourceNotFoundException"
	AccessDeniedException     = "AccessDeniedException"
)

// Static is a resolved access key pair.
type Static struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token,omitempty"`
}

// IsZero reports whether no key pair was resolved.
func (s Static) IsZero() bool {
	return s.AccessKeyID == "" && s.SecretAccessKey == ""
}

// Provider returns an AWS credentials provider for the key pair.
func (s Static) Provider() aws.CredentialsProvider {
	return awscreds.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, s.SessionToken)
}

// String hides the secret part.
func (s Static) String() string {
	if s.IsZero() {
		return "credentials(default chain)"
	}
	return fmt.Sprintf("credentials(%s)", s.AccessKeyID)
}

// FromConfig reads access_key_id, secret_access_key and session_token.
func FromConfig(cfg config.Config) Static {
	return Static{
		AccessKeyID:     cfg.String("access_key_id", ""),
		SecretAccessKey: cfg.String("secret_access_key", ""),
		SessionToken:    cfg.String("session_token", ""),
	}
}

// FromEnv reads PREFIX_ACCESS_KEY_ID, PREFIX_SECRET_ACCESS_KEY and
// PREFIX_SESSION_TOKEN.
func FromEnv(prefix string) Static {
	p := strings.ToUpper(prefix) + "_"
	return Static{
		AccessKeyID:     os.Getenv(p + "ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv(p + "SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv(p + "SESSION_TOKEN"),
	}
}

// SecretsAPI is the subset of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

var _ SecretsAPI = (*secretsmanager.Client)(nil)

// FromSecretsManager fetches a JSON secret holding a Static key pair.
func FromSecretsManager(ctx context.Context, api SecretsAPI, secretID string) (Static, error) {
	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(secretID)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case ResourceNotFoundException:
				err = fmt.Errorf("%w: secret %s", ckerr.ErrNotFound, secretID)
			case AccessDeniedException:
				err = fmt.Errorf("%w: secret %s", ckerr.ErrAccessDenied, secretID)
			}
		}
		return Static{}, &ckerr.AuthenticationError{Backend: "secretsmanager", Err: err}
	}

	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		raw = out.SecretBinary
	default:
		return Static{}, ckerr.Misuse("secret_id", fmt.Sprintf("secret %s has no value", secretID))
	}

	var s Static
	if err := json.Unmarshal(raw, &s); err != nil {
		return Static{}, ckerr.Misuse("secret_id", fmt.Sprintf("secret %s is not a JSON key pair", secretID))
	}
	if s.AccessKeyID == "" || s.SecretAccessKey == "" {
		return Static{}, ckerr.Misuse("secret_id", fmt.Sprintf("secret %s lacks access_key_id or secret_access_key", secretID))
	}
	return s, nil
}

type resolveOptions struct {
	secrets   SecretsAPI
	envPrefix string
	logger    *slog.Logger
}

// Option configures Resolve.
type Option func(*resolveOptions)

// WithSecretsAPI supplies the Secrets Manager client. Without it Resolve
// builds one from the default AWS configuration when a secret_id is set.
func WithSecretsAPI(api SecretsAPI) Option {
	return func(o *resolveOptions) {
		o.secrets = api
	}
}

// WithEnvPrefix enables the environment lookup.
func WithEnvPrefix(prefix string) Option {
	return func(o *resolveOptions) {
		o.envPrefix = prefix
	}
}

// WithLogger sets the logger used to report which source was used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolveOptions) {
		o.logger = logger
	}
}

// Resolve looks up credentials for a backend config section.
func Resolve(ctx context.Context, cfg config.Config, opts ...Option) (Static, error) {
	o := resolveOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if s := FromConfig(cfg); !s.IsZero() {
		o.log("config")
		return s, nil
	}

	if secretID := cfg.String("secret_id", ""); secretID != "" {
		api := o.secrets
		if api == nil {
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.String("region", "us-east-1")))
			if err != nil {
				return Static{}, &ckerr.AuthenticationError{Backend: "secretsmanager", Err: err}
			}
			api = secretsmanager.NewFromConfig(awsCfg)
		}
		s, err := FromSecretsManager(ctx, api, secretID)
		if err != nil {
			return Static{}, err
		}
		o.log("secretsmanager")
		return s, nil
	}

	if o.envPrefix != "" {
		if s := FromEnv(o.envPrefix); !s.IsZero() {
			o.log("env")
			return s, nil
		}
	}

	o.log("default")
	return Static{}, nil
}

func (o resolveOptions) log(source string) {
	if o.logger != nil {
		o.logger.Debug("credentials resolved", slog.String("source", source))
	}
}
