// Command settings inspects the resolved DataProwler settings from the shell.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"

	"github.com/dataprowler/dataprowler/internal/config"
	"github.com/dataprowler/dataprowler/internal/envoverlay"
	"github.com/dataprowler/dataprowler/internal/logging"
	"github.com/dataprowler/dataprowler/internal/maputil"
	"github.com/dataprowler/dataprowler/internal/schema"
)

var errNotFound = errors.New("setting not found")

type missing struct{}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code. Extra options
// are applied after the ones derived from flags.
func run(args []string, stdout, stderr io.Writer, opts ...config.Option) int {
	terminated, exitCode := false, 0
	app := kingpin.New("settings", "Inspect the resolved DataProwler settings").
		UsageWriter(stdout).
		ErrorWriter(stderr).
		Terminate(func(code int) {
			terminated, exitCode = true, code
		})
	configFile := app.Flag("config", "Path to the user YAML settings file").String()
	defaultFile := app.Flag("default-config", "Path to a default YAML settings file replacing the bundled one").String()

	getCmd := app.Command("get", "Print one setting by dotted path")
	getPath := getCmd.Arg("path", "Dotted setting path, e.g. api.port").Required().String()
	getDefault := getCmd.Flag("default", "Value printed when the path does not resolve").String()
	getRaw := getCmd.Flag("raw", "Read the merged tree without schema defaults").Bool()

	dumpCmd := app.Command("dump", "Print every setting as YAML")
	dumpFlat := dumpCmd.Flag("flat", "Print dotted keys instead of a nested tree").Bool()
	dumpRaw := dumpCmd.Flag("raw", "Print the merged tree without schema defaults").Bool()

	checkCmd := app.Command("check", "Validate the settings and report every failing field")
	filesCmd := app.Command("files", "List the settings files that were loaded, in merge order")

	command, err := app.Parse(args)
	if terminated {
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(stderr, "settings: %v\n", err)
		return 2
	}

	logger, err := logging.Bootstrap()
	if err != nil {
		fmt.Fprintf(stderr, "settings: failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	managerOpts := []config.Option{config.WithLogger(logger)}
	if *configFile != "" {
		managerOpts = append(managerOpts, config.WithUserFile(*configFile))
	}
	if *defaultFile != "" {
		managerOpts = append(managerOpts, config.WithDefaultPath(*defaultFile))
	}
	manager := config.New(append(managerOpts, opts...)...)

	switch command {
	case getCmd.FullCommand():
		err = runGet(manager, stdout, *getPath, getDefault, *getRaw)
	case dumpCmd.FullCommand():
		err = runDump(manager, stdout, *dumpFlat, *dumpRaw)
	case checkCmd.FullCommand():
		err = runCheck(manager, stdout, stderr)
	case filesCmd.FullCommand():
		manager.Load()
		for _, file := range manager.LoadedFiles() {
			fmt.Fprintln(stdout, file)
		}
	}

	if err != nil {
		fmt.Fprintf(stderr, "settings: %v\n", err)
		return 1
	}
	return 0
}

func runGet(manager *config.Manager, w io.Writer, path string, def *string, raw bool) error {
	var fallback any = missing{}
	if def != nil && *def != "" {
		fallback = envoverlay.Coerce(*def)
	}

	var value any
	if raw {
		value = manager.Get(path, fallback)
	} else {
		resolved, err := manager.Resolve(path, fallback)
		if err != nil {
			return err
		}
		value = resolved
	}

	if _, ok := value.(missing); ok {
		return fmt.Errorf("%w: %s", errNotFound, path)
	}
	return writeValue(w, value)
}

func runDump(manager *config.Manager, w io.Writer, flat, raw bool) error {
	var tree map[string]any
	if raw {
		tree = manager.Load()
	} else {
		settings, err := manager.Validate()
		if err != nil {
			return err
		}
		if tree, err = settings.Map(); err != nil {
			return err
		}
	}

	if flat {
		tree = maputil.Flatten(tree, maputil.DefaultSeparator)
	}
	return writeValue(w, tree)
}

func runCheck(manager *config.Manager, stdout, stderr io.Writer) error {
	if _, err := manager.Validate(); err != nil {
		var verr *schema.SchemaValidationError
		if !errors.As(err, &verr) {
			return err
		}
		for _, field := range verr.Fields {
			fmt.Fprintf(stderr, "%s: %s\n", field.Path, field.Reason)
		}
		return fmt.Errorf("%d invalid setting(s)", len(verr.Fields))
	}

	fmt.Fprintf(stdout, "ok: %s\n", manager)
	return nil
}

// writeValue prints scalars bare and anything structured as YAML.
func writeValue(w io.Writer, value any) error {
	switch value.(type) {
	case map[string]any, []any, []string, []int:
		out, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		_, err := fmt.Fprintln(w, value)
		return err
	}
}
