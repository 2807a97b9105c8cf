// Command pixiejuice exercises the engine from the command line.
//
// Usage:
//
//	pixiejuice optimize [options] -o <output> <input>
//	pixiejuice info <input>
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pixiejuice/engine"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "optimize":
		err = runOptimize(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "pixiejuice: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "pixiejuice: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  pixiejuice optimize [options] -o <output> <input>   Quantize/decimate/re-encode
  pixiejuice info <input>                               Print detected kind and size

Run "pixiejuice <command> -h" for command-specific options.
`)
}

func runOptimize(args []string) error {
	fs := flag.NewFlagSet("optimize", flag.ContinueOnError)
	output := fs.String("o", "", "output path (required)")
	maxColors := fs.Int("colors", 0, "palette size for quantization (0 disables)")
	medianCut := fs.Bool("median-cut", false, "use median-cut instead of octree quantization")
	dither := fs.Bool("dither", false, "Floyd-Steinberg dither after quantization")
	blur := fs.Float64("blur", 0, "Gaussian blur sigma (0 disables)")
	unsharpAmount := fs.Float64("unsharp", 0, "unsharp mask amount (0 disables)")
	unsharpRadius := fs.Int("unsharp-radius", 2, "unsharp mask radius")
	jpegQuality := fs.Int("quality", 0, "JPEG re-encode quality 1-100 (0 = default)")
	targetReduction := fs.Float64("target-reduction", 0, "fraction of input bytes to try to remove (0 disables)")
	weldTolerance := fs.Float64("weld", 0, "mesh vertex-weld tolerance (0 disables)")
	meshRatio := fs.Float64("decimate", 0, "mesh QEM target triangle ratio (0 disables)")
	vertexCache := fs.Bool("vertex-cache", false, "reorder mesh indices for vertex-cache locality")
	allowGrow := fs.Bool("allow-grow", false, "disable the never-grow policy")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("optimize: missing input file\nUsage: pixiejuice optimize [options] -o <output> <input>")
	}
	if *output == "" {
		return fmt.Errorf("optimize: -o output path is required")
	}
	inputPath := fs.Arg(0)

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	kind, err := pixiejuice.DetectKind(inputPath, data)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	opts := pixiejuice.Options{
		Image: pixiejuice.ImageOptions{
			MaxColors:     *maxColors,
			UseMedianCut:  *medianCut,
			Dither:        *dither,
			BlurSigma:     *blur,
			UnsharpAmount: float32(*unsharpAmount),
			UnsharpRadius: *unsharpRadius,
			JPEGQuality:   *jpegQuality,
		},
		Mesh: pixiejuice.MeshOptions{
			WeldTolerance:  float32(*weldTolerance),
			TargetRatio:    float32(*meshRatio),
			VertexCacheOpt: *vertexCache,
		},
		AllowGrow: *allowGrow,
	}
	if *targetReduction > 0 {
		opts.TargetReduction = targetReduction
		opts.QualityMin, opts.QualityMax = 5, 95
	}

	eng := pixiejuice.NewEngine(0)
	result := eng.Optimize(kind, data, opts)
	if result.ErrorKind != 0 {
		return fmt.Errorf("optimize failed (%d): %s", result.ErrorKind, result.ErrorMsg)
	}

	if err := os.WriteFile(*output, result.Output, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	fmt.Printf("input:  %d bytes\n", result.InputSize)
	fmt.Printf("output: %d bytes\n", result.OutputSize)
	fmt.Printf("took:   %s\n", result.Duration)
	return nil
}

func runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: pixiejuice info <input>")
	}
	inputPath := args[0]

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	kind, err := pixiejuice.DetectKind(inputPath, data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	fmt.Printf("File:   %s\n", inputPath)
	fmt.Printf("Kind:   0x%02x\n", byte(kind))
	fmt.Printf("Size:   %d bytes\n", len(data))
	return nil
}

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
