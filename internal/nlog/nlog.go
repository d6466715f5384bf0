// Package nlog is a thin leveled-logging wrapper over zerolog, shaped after
// aistore's cmn/nlog: a package-level logger plus a verbosity gate so hot
// paths (the per-slice head scheduler, the per-request priority model) can
// skip formatting work entirely when nothing would be printed.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).With().Timestamp().Logger()

// verbosity is a global level gate; FastV callers avoid allocating/formatting
// a message unless the configured level admits it.
var verbosity atomic.Int32

// SetVerbosity sets the global verbosity level (0 = quiet).
func SetVerbosity(v int) { verbosity.Store(int32(v)) }

// FastV mirrors aistore's cmn.Rom.FastV(level, module) calling convention.
// The module argument is accepted for call-site parity with the teacher but
// is not currently used to gate independently of level — see DESIGN.md.
func FastV(level int, _module string) bool {
	return int(verbosity.Load()) >= level
}

func Infoln(args ...any)             { logger.Info().Msg(sprint(args...)) }
func Infof(format string, a ...any)   { logger.Info().Msgf(format, a...) }
func Warnln(args ...any)             { logger.Warn().Msg(sprint(args...)) }
func Warnf(format string, a ...any)   { logger.Warn().Msgf(format, a...) }
func Errorln(args ...any)            { logger.Error().Msg(sprint(args...)) }
func Errorf(format string, a ...any)  { logger.Error().Msgf(format, a...) }
func Fatalln(args ...any)            { logger.Fatal().Msg(sprint(args...)) }

func sprint(args ...any) string { return fmt.Sprint(args...) }
