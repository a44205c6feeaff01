package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/fredsync/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// Shell completion, installed with COMP_INSTALL=1 fsync.
	completion := &complete.Command{
		Sub: map[string]*complete.Command{
			"sync": {Flags: map[string]complete.Predictor{
				"s":            predict.Something,
				"e":            predict.Something,
				"full-refresh": predict.Nothing,
				"rpm":          predict.Something,
				"workers":      predict.Something,
			}},
			"catalog": {Flags: map[string]complete.Predictor{
				"n": predict.Nothing,
			}},
			"list": {Flags: map[string]complete.Predictor{
				"c": predict.Something,
			}},
			"topic": {},
		},
		Flags: map[string]complete.Predictor{
			"db":           predict.Files("*.db"),
			"catalog":      predict.Files("*.csv"),
			"fred-api-key": predict.Something,
		},
	}
	completion.Complete("fsync")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
