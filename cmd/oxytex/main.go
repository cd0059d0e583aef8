// Command oxytex inspects compressed textures and WGSL shaders without a GPU.
//
//	oxytex inspect [-v] [-levels] file.dds...
//	oxytex shader [-v] <stage> file.wgsl
//	oxytex manifest [-v] assets.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/Carmen-Shannon/oxy-tex/common"
	"github.com/Carmen-Shannon/oxy-tex/engine/loader"
	"github.com/Carmen-Shannon/oxy-tex/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-tex/engine/texture"
	"github.com/schollz/progressbar/v3"
)

const usage = `usage:
  oxytex inspect [-v] [-levels] file.dds...
  oxytex shader [-v] <stage> file.wgsl
  oxytex manifest [-v] assets.yaml`

// cli holds the output streams and the shader compiler of one invocation.
type cli struct {
	stdout, stderr io.Writer
	compiler       shader.Compiler
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{stdout: stdout, stderr: stderr, compiler: shader.NewNagaCompiler()}
}

func (c *cli) run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "inspect":
		return c.inspect(args[1:])
	case "shader":
		return c.shader(args[1:])
	case "manifest":
		return c.manifest(args[1:])
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

// flags creates a flag set with the shared -v flag.
func (c *cli) flags(name string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	verbose := fs.Bool("v", false, "Enable debug logging")
	return fs, verbose
}

func (c *cli) setupLogging(level slog.Level) {
	common.SetLogger(slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level})))
}

func verbosity(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

func (c *cli) inspect(args []string) error {
	fs, verbose := c.flags("inspect")
	levels := fs.Bool("levels", false, "List every mip level")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() == 0 {
		return errors.New("inspect needs at least one texture file")
	}
	c.setupLogging(verbosity(*verbose))

	l := loader.NewLoader(nil)
	loaded, loadErr := l.LoadTextures(fs.Args()...)

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tFORMAT\tSIZE\tLEVELS\tBYTES\tFULL CHAIN")
	for _, path := range fs.Args() {
		tex, ok := loaded[path]
		if !ok {
			continue
		}
		w, h, _ := tex.Dimensions(0)
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%d\t%t\n", path, tex.Format(), w, h, tex.MipmapCount(), tex.ByteSize(), tex.HasFullMipChain())
		if *levels {
			for i, lvl := range tex.MipLevels() {
				fmt.Fprintf(tw, "  level %d\t\t%dx%d\t\t%d\t\n", i, lvl.Width, lvl.Height, lvl.ByteLength)
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return loadErr
}

func (c *cli) shader(args []string) error {
	fs, verbose := c.flags("shader")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() != 2 {
		return errors.New("shader needs a stage and a WGSL file")
	}
	c.setupLogging(verbosity(*verbose))

	st, err := shader.ParseShaderType(fs.Arg(0))
	if err != nil {
		return err
	}
	l := loader.NewLoader(nil, loader.WithCompiler(c.compiler))
	s, err := l.LoadShader(fs.Arg(1), st)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "%s (%s, entry point %s)\n", s.Key(), s.ShaderType(), s.EntryPoint())
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIFORM\tTYPE\tGROUP\tBINDING\tOFFSET\tARRAY")
	for _, slot := range s.Uniforms() {
		array := "-"
		if slot.IsArray() {
			array = fmt.Sprintf("%d x %d", slot.ArrayLen, slot.Stride)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", slot.Name, slot.Shape, slot.Group, slot.Binding, slot.Offset, array)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, w := range s.CompileWarnings() {
		fmt.Fprintf(c.stdout, "warning: %s\n", w)
	}
	return nil
}

func (c *cli) manifest(args []string) error {
	fs, verbose := c.flags("manifest")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() != 1 {
		return errors.New("manifest needs exactly one YAML file")
	}

	m, err := LoadManifest(fs.Arg(0))
	if err != nil {
		return err
	}
	level, _ := parseLogLevel(m.LogLevel)
	if *verbose {
		level = slog.LevelDebug
	}
	c.setupLogging(level)

	opts := []loader.LoaderBuilderOption{loader.WithCompiler(c.compiler)}
	if m.Workers > 0 {
		opts = append(opts, loader.WithWorkers(m.Workers))
	}
	if m.RequireFullMipChain {
		opts = append(opts, loader.WithRequireFullMipChain())
	}
	p := profiler.NewProfiler()
	opts = append(opts, loader.WithProfiler(p))
	l := loader.NewLoader(nil, opts...)

	bar := progressbar.NewOptions(len(m.Textures)+len(m.Shaders),
		progressbar.OptionSetWriter(c.stderr),
		progressbar.OptionSetDescription("checking assets"),
		progressbar.OptionShowCount(),
	)
	defer bar.Close()

	var errs []error
	textures, err := l.LoadTextures(m.Textures...)
	errs = append(errs, err)
	_ = bar.Add(len(m.Textures))
	requested := len(slices.Compact(slices.Sorted(slices.Values(m.Textures))))

	warnings := 0
	for _, e := range m.Shaders {
		s, err := l.LoadShader(e.Path, e.ShaderType())
		errs = append(errs, err)
		if s != nil {
			warnings += len(s.CompileWarnings())
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	stats := p.Snapshot()
	failed := errors.Join(errs...)
	fmt.Fprintf(c.stdout, "\n%d/%d textures ok (%d bytes decoded), %d shaders, %d compile warnings\n",
		len(textures), requested, stats.DecodedBytes, len(m.Shaders), warnings)
	return failed
}

// formatsLine lists the supported codecs for the usage text.
func formatsLine() string {
	s := "supported formats:"
	for _, f := range texture.SupportedFormats() {
		s += " " + f.String()
	}
	return s
}

func main() {
	c := newCLI(os.Stdout, os.Stderr)
	if err := c.run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "oxytex: %v\n", err)
		if len(os.Args) < 2 {
			fmt.Fprintln(os.Stderr, formatsLine())
		}
		os.Exit(1)
	}
}
