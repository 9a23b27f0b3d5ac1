//go:build !(js && wasm)

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/voxquad/export"
	"github.com/voxelsplace/voxquad/pack"
	"github.com/voxelsplace/voxquad/server"
	"github.com/voxelsplace/voxquad/utils"
	"github.com/voxelsplace/voxquad/vox"
	"golang.org/x/term"
)

// The voxquad version number. Set at build.
var version = "v0.1.0"

type config struct {
	Mode        string      `cli:""        env:"VOXQUAD_MODE"          help:"What to run (convert|pack|unpack|pack2glb|noise|serve)."`
	Inputs      []string    `cli:""        env:"VOXQUAD_INPUTS"        help:"Comma separated input files."`
	Output      string      `cli:""        env:"VOXQUAD_OUTPUT"        help:"Output file or directory. With convert and a single input, - writes to stdout."`
	Format      string      `cli:""        env:"VOXQUAD_FORMAT"        help:"Convert output format (glb|json|stats)."`
	Layout      string      `cli:""        env:"VOXQUAD_PACK_LAYOUT"   help:"Pack layout (raw|cdc)."`
	Compression string      `cli:""        env:"VOXQUAD_PACK_COMPRESS" help:"Pack compression (none|zlib|zstd)."`
	Noise       noiseConfig `cli:""        env:"-"                     help:"Noise generation configuration."`
	Addr        string      `cli:""        env:"VOXQUAD_ADDR"          help:"Listening address of the conversion server."`
	MaxBodySize int         `cli:",hidden" env:"VOXQUAD_MAX_BODY_SIZE" help:"The maximum model upload size in bytes."`
	MaxCells    int         `cli:",hidden" env:"VOXQUAD_MAX_CELLS"     help:"The maximum number of cells of an accepted model."`
	LogLevel    string      `cli:""        env:"VOXQUAD_LOG_LEVEL"     help:"Log level (debug|info|warning|error)."`
	LogIndent   bool        `cli:""        env:"VOXQUAD_LOG_INDENT"    help:"Indent logs."`
	Version     bool        `cli:""        env:"-"                     help:"Show version."`
	Help        bool        `cli:""        env:"-"                     help:"Show help."`
}

type noiseConfig struct {
	Width   int `cli:"" env:"VOXQUAD_NOISE_WIDTH"    help:"Width of generated models."`
	Height  int `cli:"" env:"VOXQUAD_NOISE_HEIGHT"   help:"Height of generated models."`
	Depth   int `cli:"" env:"VOXQUAD_NOISE_DEPTH"    help:"Depth of generated models."`
	FillMin int `cli:"" env:"VOXQUAD_NOISE_FILL_MIN" help:"Minimum percentage of filled cells."`
	FillMax int `cli:"" env:"VOXQUAD_NOISE_FILL_MAX" help:"Maximum percentage of filled cells."`
	Amount  int `cli:"" env:"VOXQUAD_NOISE_AMOUNT"   help:"Number of models to generate."`
	Seed    int `cli:"" env:"VOXQUAD_NOISE_SEED"     help:"Random seed. Zero picks one from the clock."`
}

func main() {
	conf := config{
		Mode:        "convert",
		Output:      ".",
		Format:      string(utils.FormatGLB),
		Layout:      pack.LayoutCDC.String(),
		Compression: pack.CompZstd.String(),
		Noise: noiseConfig{
			Width:   16,
			Height:  16,
			Depth:   16,
			FillMin: 30,
			FillMax: 30,
			Amount:  1,
		},
		Addr:        ":8080",
		MaxBodySize: server.DefaultMaxBodySize,
		MaxCells:    vox.DefaultMaxCells,
		LogLevel:    logs.InfoLevel.String(),
	}

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Turns voxel models into face-culled quad meshes.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if err := run(ctx, conf); err != nil {
		logs.Fatal(err)
	}
}

func run(ctx context.Context, conf config) error {
	switch conf.Mode {
	case "convert":
		return convert(ctx, conf)

	case "pack":
		layout, err := pack.ParseLayout(conf.Layout)
		if err != nil {
			return err
		}
		comp, err := pack.ParseCompression(conf.Compression)
		if err != nil {
			return err
		}
		return utils.CreatePackWith(conf.Inputs, conf.Output, layout, comp)

	case "unpack", "pack2glb":
		if len(conf.Inputs) != 1 {
			return errors.New("expected exactly one pack file").
				WithTag("inputs", len(conf.Inputs))
		}
		if conf.Mode == "unpack" {
			return utils.UnpackToDir(conf.Inputs[0], conf.Output)
		}
		return utils.RunPack2GLB(conf.Inputs[0], conf.Output)

	case "noise":
		n := conf.Noise
		if n.Width <= 0 || n.Height <= 0 || n.Depth <= 0 {
			return errors.New("noise dimensions must be positive").
				WithTag("width", n.Width).
				WithTag("height", n.Height).
				WithTag("depth", n.Depth)
		}
		seed := int64(n.Seed)
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return utils.RunGenerateNoiseRange(uint32(n.Width), uint32(n.Height), uint32(n.Depth),
			float64(n.FillMin), float64(n.FillMax), n.Amount, conf.Output, seed)

	case "serve":
		return serve(ctx, conf)

	default:
		return errors.New("unknown mode").WithTag("mode", conf.Mode)
	}
}

func convert(ctx context.Context, conf config) error {
	f, err := utils.ParseFormat(conf.Format)
	if err != nil {
		return err
	}
	if len(conf.Inputs) == 0 {
		return errors.New("no input files")
	}

	if conf.Output != "-" {
		_, err := utils.ConvertAll(ctx, conf.Inputs, conf.Output, f)
		return err
	}

	if len(conf.Inputs) != 1 {
		return errors.New("stdout output takes exactly one input").
			WithTag("inputs", len(conf.Inputs))
	}
	if f == utils.FormatGLB && term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("refusing to write binary glb to a terminal")
	}

	g, err := vox.LoadFile(conf.Inputs[0])
	if err != nil {
		return errors.New("loading model failed").
			WithTag("path", conf.Inputs[0]).
			Wrap(err)
	}
	quads := vox.Polygonise(g)

	switch f {
	case utils.FormatGLB:
		return export.WriteGLB(os.Stdout, quads, g.Header(), export.DefaultOptions)
	case utils.FormatJSON:
		return export.WriteJSON(os.Stdout, g.Header(), quads)
	default:
		return export.WriteStats(os.Stdout, export.Summarise(g, quads))
	}
}

func serve(ctx context.Context, conf config) error {
	h := server.Handler{
		MaxBodySize: int64(conf.MaxBodySize),
		MaxCells:    uint64(max(conf.MaxCells, 0)),
		Version:     version,
	}

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("addr", conf.Addr).
		Info("starting voxquad server")

	return server.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(h.ServeMux(),
			server.MetricsPathFormatter)},
	)
}
