package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/config"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/engine"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/harness"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/jdql"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/keyvalue"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/manager"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/mapping"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/sqlstore"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/translate"
)

// env is the runtime a command executes in: configuration, logger and the
// optional mapping registry.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *mapping.Registry
}

// loadEnv reads the config named by --config (defaults otherwise), builds the
// logger on stderr and loads the configured CUE mappings.
func loadEnv(opts *RootOptions, stderr io.Writer) (*env, error) {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, ErrCodeConfig+": invalid config", err)
		}
		cfg = loaded
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if opts.Format == "json" {
		cfg.Log.Format = "json"
	}

	e := &env{cfg: cfg, logger: cfg.Logger(stderr)}
	if cfg.Mappings != "" {
		registry, err := mapping.LoadDir(cfg.Mappings)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, ErrCodeMappings+": failed to load mappings", err)
		}
		e.registry = registry
		e.logger.Debug("mappings loaded", "dir", cfg.Mappings, "entities", registry.Entities(), "enums", registry.Enums())
	}
	return e, nil
}

// observer returns the registry as a translate.Observer, or nil.
func (e *env) observer() translate.Observer {
	if e.registry == nil {
		return nil
	}
	return e.registry
}

// parser builds a parser resolving the registry's enum constants.
func (e *env) parser() *jdql.Parser {
	if e.registry == nil {
		return jdql.NewParser()
	}
	return jdql.NewParser(jdql.WithEnumConverter(e.registry))
}

// openManager opens the configured document backend.
func (e *env) openManager() (manager.DatabaseManager, func(), error) {
	fold := translate.New().Fold
	switch e.cfg.Backend.Kind {
	case config.BackendMemory:
		return manager.NewMemory(manager.WithLogger(e.logger), manager.WithFolder(fold)), func() {}, nil
	case config.BackendSQLite:
		path := e.cfg.Backend.Path
		if path == "" {
			path = ":memory:"
		}
		st, err := sqlstore.Open(path, sqlstore.WithLogger(e.logger), sqlstore.WithFolder(fold))
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, ErrCodeBackend+": failed to open sqlite store", err)
		}
		return st, func() { st.Close() }, nil
	default:
		return nil, nil, NewExitError(ExitCommandError,
			fmt.Sprintf("%s: backend %q does not serve document queries", ErrCodeBackend, e.cfg.Backend.Kind))
	}
}

// openBucket opens the configured key-value backend. Document backends fall
// back to an in-memory bucket.
func (e *env) openBucket() (keyvalue.BucketManager, func(), error) {
	if e.cfg.Backend.Kind != config.BackendBadger {
		return keyvalue.NewMemoryBucket(nil), func() {}, nil
	}
	bucket, err := keyvalue.OpenBadger(keyvalue.BadgerOptions{
		Dir:      e.cfg.Backend.Path,
		InMemory: e.cfg.Backend.Path == "",
	})
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, ErrCodeBackend+": failed to open badger bucket", err)
	}
	return bucket, func() { bucket.Close() }, nil
}

// newEngine builds an engine over mgr with the configured cache bound and
// enum conversion.
func (e *env) newEngine(mgr manager.DatabaseManager) (*engine.Engine, error) {
	opts := []engine.Option{
		engine.WithLogger(e.logger),
		engine.WithCacheSize(e.cfg.Cache.MaxEntries),
	}
	if e.registry != nil {
		opts = append(opts, engine.WithEnumConverter(e.registry))
	}
	return engine.New(mgr, opts...)
}

// parseParams decodes repeated --param name=value flags. Values are YAML
// scalars or flow sequences: 42, 1.5, true, Ada, "[Ada, Alan]".
func parseParams(flags []string) (map[string]any, []string, error) {
	params := make(map[string]any, len(flags))
	for _, flag := range flags {
		name, raw, ok := strings.Cut(flag, "=")
		if !ok || name == "" {
			return nil, nil, NewExitError(ExitCommandError,
				fmt.Sprintf("%s: --param %q: expected name=value", ErrCodeArgument, flag))
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, nil, WrapExitError(ExitCommandError,
				fmt.Sprintf("%s: --param %q", ErrCodeArgument, flag), err)
		}
		if value == nil && raw != "null" && raw != "~" {
			value = raw
		}
		params[name] = value
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return params, names, nil
}

// loadSeed reads a YAML list of entities, in the harness seed format.
func loadSeed(path string) ([]harness.SeedEntity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeNotFound+": failed to read seed file", err)
	}
	var seed []harness.SeedEntity
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeArgument+": failed to parse seed file", err)
	}
	return seed, nil
}
