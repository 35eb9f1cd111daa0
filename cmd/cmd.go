// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func inputArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "input", UsageText: "INPUT (reads stdin when omitted)"}}
}

// qrCommand groups QR scanning and rendering
func qrCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "qr",
		Usage:    "Scan QR codes with the browser camera or render text as a QR code",
		Commands: []*cli.Command{qrScanCommand(r, "scan"), qrEncodeCommand(r, "encode")},
	}
}

func qrScanCommand(r *Runner, name string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: "Open a browser scanner page and print the first decoded QR code",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up when nothing is scanned within this duration (0 waits until interrupted)",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the scanner URL without opening a browser",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Loopback host to bind the scanner server to",
			},
		},
		Action: r.QRScan,
	}
}

func qrEncodeCommand(r *Runner, name string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     "Render INPUT as a QR code PNG",
		Arguments: inputArg(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the PNG to a file instead of stdout",
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "Image width and height in pixels",
			},
			&cli.StringFlag{
				Name:  "level",
				Usage: "Error correction level: low, medium, high, highest",
			},
			&cli.BoolFlag{
				Name:  "ascii",
				Usage: "Print the code as text for the terminal",
			},
		},
		Action: r.QREncode,
	}
}

// jwtCommand groups JSON Web Token helpers
func jwtCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "jwt",
		Usage: "Decode, sign and verify HMAC JSON Web Tokens",
		Commands: []*cli.Command{
			jwtDecodeCommand(r, "decode"),
			jwtEncodeCommand(r, "encode"),
			jwtVerifyCommand(r, "verify"),
		},
	}
}

func jwtKeyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "algorithm",
			Aliases: []string{"a"},
			Usage:   "Signing algorithm: HS256, HS384, HS512",
		},
		&cli.StringFlag{
			Name:    "secret",
			Aliases: []string{"s"},
			Usage:   "HMAC secret",
		},
	}
}

func jwtDecodeCommand(r *Runner, name string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     "Decode a token without verifying its signature",
		Arguments: inputArg(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.JWTDecode,
	}
}

func jwtEncodeCommand(r *Runner, name string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     "Sign a JSON object payload",
		Arguments: inputArg(),
		Flags: append(jwtKeyFlags(), &cli.IntFlag{
			Name:    "exp",
			Aliases: []string{"e"},
			Usage:   "Add an exp claim this many seconds from now",
		}),
		Action: r.JWTEncode,
	}
}

func jwtVerifyCommand(r *Runner, name string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     "Verify a token's signature and expiry",
		Arguments: inputArg(),
		Flags: append(jwtKeyFlags(), &cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		}),
		Action: r.JWTVerify,
	}
}

// uuidCommand groups UUID helpers
func uuidCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "uuid",
		Usage:    "Generate and inspect UUIDs",
		Commands: []*cli.Command{uuidGenCommand(r, "gen"), uuidParseCommand(r, "parse")},
	}
}

func uuidGenCommand(r *Runner, name string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: "Generate a UUID",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "UUID version: 1, 4, 5, 7",
				Value:   4,
			},
			&cli.StringFlag{
				Name:    "namespace",
				Aliases: []string{"n"},
				Usage:   "Namespace for v5: dns, url, oid, x500",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"s"},
				Usage:   "Name for v5",
			},
		},
		Action: r.UUIDGen,
	}
}

func uuidParseCommand(r *Runner, name string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     "Show the version, variant and timestamp of a UUID",
		Arguments: inputArg(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.UUIDParse,
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default configuration to the --config path",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "print",
						Usage: "Print the default configuration instead of writing it",
					},
				},
				Action: r.ConfigInit,
			},
		},
	}
}

// legacyCommands keeps the flat command names of earlier releases working.
func legacyCommands(r *Runner) []*cli.Command {
	commands := []*cli.Command{
		qrScanCommand(r, "qr2s"),
		qrEncodeCommand(r, "s2qr"),
		jwtDecodeCommand(r, "jwt_decode"),
		jwtEncodeCommand(r, "jwt_encode"),
		jwtVerifyCommand(r, "jwt_verify"),
		uuidGenCommand(r, "uuid_gen"),
		uuidParseCommand(r, "uuid_parse"),
	}
	for _, c := range commands {
		c.Hidden = true
	}
	return commands
}
