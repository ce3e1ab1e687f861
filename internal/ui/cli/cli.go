package cli

import "flag"

const defaultConfigPath = "./codemap.toml"

type cliOptions struct {
	configPath string
	once       bool
	watch      bool
	ui         bool
	serve      bool
	format     string
	out        string
	verbose    bool
	version    bool
	formats    []string
	args       []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("codemap", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.once, "once", false, "Run single scan and exit")
	fs.BoolVar(&opts.watch, "watch", false, "Keep running and re-analyze files on change")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode (implies -watch)")
	fs.BoolVar(&opts.serve, "serve", false, "Serve the read-only HTTP query API")
	fs.StringVar(&opts.format, "format", "", "Comma-separated output formats (markdown, mermaid, dot, tsv, json); empty writes the configured formats")
	fs.StringVar(&opts.out, "out", "", "Override the output directory")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
