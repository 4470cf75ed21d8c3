package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cfoust/f3dopt/pkg/config"
	"github.com/cfoust/f3dopt/pkg/reloc"
	"github.com/cfoust/f3dopt/pkg/version"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var CLI struct {
	Version bool `help:"Print version information and exit." short:"v"`
	Debug   bool `help:"Whether to enable debug logging."`

	Optimize struct {
		Project string   `arg:"" name:"project" help:"Project manifest listing the areas to optimize." type:"existingfile"`
		Configs []string `name:"config" short:"c" help:"Configuration files, applied in order." type:"existingfile"`
		Out     string   `short:"o" help:"Directory to write the optimized project to." default:"out" type:"path"`
		Report  string   `short:"r" help:"Write a CBOR run report to this file." type:"path"`
	} `cmd:"" help:"Optimize every area of a project."`

	Bank struct {
		Project string   `arg:"" name:"project" help:"Project manifest listing the areas to scan." type:"existingfile"`
		Configs []string `name:"config" short:"c" help:"Configuration files, applied in order." type:"existingfile"`
	} `cmd:"" help:"Report what the texture bank would hold without rewriting anything."`

	Disasm struct {
		Blob   string `arg:"" name:"blob" help:"Area data, optionally zstd compressed (.zst)." type:"existingfile"`
		Offset string `arg:"" name:"offset" help:"Offset or segmented address of the display list."`
	} `cmd:"" help:"Disassemble a display list."`

	Config struct {
	} `cmd:"" help:"Write f3dopt's default configuration to standard output."`
}

// describe formats a fatal error. Unmapped pointers come with the
// relocation table of the area that failed.
func describe(err error) string {
	var unmapped *reloc.UnmappedError
	if errors.As(err, &unmapped) {
		return fmt.Sprintf("%s\nrelocation table:\n%s", err, unmapped.Dump)
	}
	return err.Error()
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", describe(err))
	os.Exit(1)
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := kong.Parse(&CLI,
		kong.Name("f3dopt"),
		kong.Description("a Fast3D display list optimizer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	if CLI.Version {
		fmt.Printf(
			"f3dopt %s (commit %s)\n",
			version.Version,
			version.GitCommit,
		)
		fmt.Printf(
			"built %s\n",
			version.BuildTime,
		)
		os.Exit(0)
	}

	var err error
	switch ctx.Command() {
	case "optimize <project>":
		err = optimizeCommand()
	case "bank <project>":
		err = bankCommand()
	case "disasm <blob> <offset>":
		err = disasmCommand()
	case "config":
		os.Stdout.Write(config.DEFAULT)
	}

	if err != nil {
		writeError(err)
	}
}
