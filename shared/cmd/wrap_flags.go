package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

// WrapFlags wraps flags so their values can also be loaded from the source
// altsrc.InitInputSourceWithContext is given (coolproxy uses this for
// ConfigFileFlag).
func WrapFlags(flags []cli.Flag) []cli.Flag {
	wrapped := make([]cli.Flag, 0, len(flags))
	for _, f := range flags {
		switch v := f.(type) {
		case *cli.BoolFlag:
			f = altsrc.NewBoolFlag(v)
		case *cli.DurationFlag:
			f = altsrc.NewDurationFlag(v)
		case *cli.Float64Flag:
			f = altsrc.NewFloat64Flag(v)
		case *cli.IntFlag:
			f = altsrc.NewIntFlag(v)
		case *cli.Int64Flag:
			f = altsrc.NewInt64Flag(v)
		case *cli.StringFlag:
			f = altsrc.NewStringFlag(v)
		case *cli.StringSliceFlag:
			f = altsrc.NewStringSliceFlag(v)
		case *cli.Uint64Flag:
			f = altsrc.NewUint64Flag(v)
		case *cli.UintFlag:
			f = altsrc.NewUintFlag(v)
		default:
			panic(fmt.Sprintf("cannot convert type %T", f))
		}
		wrapped = append(wrapped, f)
	}
	return wrapped
}
