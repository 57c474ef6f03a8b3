/*
 * evmcodec - Decoding and encoding of EVM state and calldata
 *
 * Copyright Dapper Labs, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// A utility program that finds the contract a bytecode belongs to,
// given a file of compiled contracts.

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/logrusorgru/aurora/v4"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/onflow/evmcodec/contexts"
)

func main() {

	contextsFlag := flag.String("contexts", "", "file of compiled contracts (YAML or JSON)")
	binaryFileFlag := flag.String("binary-file", "", "file containing hex encoded bytecodes, one per line")
	verboseFlag := flag.Bool("verbose", false, "log matching details")
	progressFlag := flag.Bool("progress", false, "show a progress bar")

	flag.Parse()

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	}
	level := zerolog.InfoLevel
	if *verboseFlag {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(consoleWriter).Level(level).With().Timestamp().Logger()

	if *contextsFlag == "" {
		log.Fatal().Msg("missing contexts file")
	}

	binaries := flag.Args()
	if *binaryFileFlag != "" {
		data, err := os.ReadFile(*binaryFileFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read binary file")
		}
		binaries = append(binaries, readBinaries(string(data))...)
	}
	if len(binaries) == 0 {
		log.Fatal().Msg("missing binary")
	}

	file, err := ReadFile(*contextsFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load contexts")
	}

	known := file.Contexts()
	log.Info().Msgf("loaded %d contexts", len(known))

	var bar *progressbar.ProgressBar
	if *progressFlag {
		bar = progressbar.Default(int64(len(binaries)), "matching binaries")
	}

	found := true
	for _, binary := range binaries {
		if bar != nil {
			_ = bar.Add(1)
		}

		context := contexts.FindContext(known, binary)
		if context == nil {
			found = false
			fmt.Println(colorizeError("no matching context"))
			continue
		}

		log.Debug().
			Str("context", context.Context).
			Str("compilation", context.CompilationID).
			Msg("found context")

		fmt.Println(formatContext(context))
	}

	if !found {
		os.Exit(1)
	}
}

// readBinaries returns the non-empty lines of the given text.
func readBinaries(text string) []string {
	var binaries []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		binaries = append(binaries, line)
	}
	return binaries
}

func formatContext(context *contexts.Context) string {
	kind := "deployed"
	if context.IsConstructor {
		kind = "constructor"
	}
	name := aurora.Colorize(context.ContractName, aurora.YellowFg|aurora.BrightFg).String()
	return fmt.Sprintf("%s %s (%s, compilation %s)", name, context.ContractKind, kind, context.CompilationID)
}

func colorizeError(message string) string {
	return aurora.Colorize(message, aurora.RedFg|aurora.BrightFg|aurora.BoldFm).String()
}
