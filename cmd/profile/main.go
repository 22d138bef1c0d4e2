package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/AlexanderGrooff/commandlang-go/internal/chat"
	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

var (
	cpuprofile   = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile   = flag.String("memprofile", "", "write memory profile to file")
	blockprofile = flag.String("blockprofile", "", "write goroutine blocking profile to file")
	templateFile = flag.StringP("template", "t", "", "template file to render")
	contextFile  = flag.StringP("context", "c", "", "YAML chat fixture to render against")
	iterations   = flag.IntP("iterations", "n", 1000, "number of iterations to run")
	template     = flag.String("template-string", "", "template string to render (alternative to template file)")
	outputDir    = flag.StringP("output-dir", "o", "profile", "directory to store profile output")
	cacheSize    = flag.Int("cache", 0, "parsed-template cache size (0 disables the cache)")
)

func main() {
	flag.Parse()

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// Get template
	var templateContent string
	if *templateFile != "" {
		content, err := os.ReadFile(*templateFile)
		if err != nil {
			log.Fatalf("Failed to read template file: %v", err)
		}
		templateContent = string(content)
	} else if *template != "" {
		templateContent = *template
	} else {
		log.Fatal("Either --template or --template-string must be provided")
	}

	// Get context
	msg := chat.DemoMessage()
	if *contextFile != "" {
		var err error
		msg, err = chat.LoadFixture(*contextFile)
		if err != nil {
			log.Fatalf("Failed to load context: %v", err)
		}
	}

	var opts []commandlang.Option
	if *cacheSize > 0 {
		opts = append(opts, commandlang.WithCache(commandlang.NewTemplateCache(*cacheSize)))
	}
	renderer := commandlang.New(opts...)

	// Start CPU profiling if requested
	if *cpuprofile != "" {
		cpuFile := filepath.Join(*outputDir, *cpuprofile)
		f, err := os.Create(cpuFile)
		if err != nil {
			log.Fatalf("Failed to create CPU profile file: %v", err)
		}
		defer f.Close()

		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("Failed to start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
		fmt.Printf("CPU profiling enabled, writing to %s\n", cpuFile)
	}

	fmt.Printf("Rendering template %d times\n", *iterations)
	start := time.Now()

	for i := 0; i < *iterations; i++ {
		result, err := renderer.Render(msg, templateContent)
		if err != nil {
			log.Fatalf("Failed to render template: %v", err)
		}
		// Use result to prevent compiler optimization
		if i == *iterations-1 {
			fmt.Printf("Result length: %d\n", len(result))
		}
	}

	duration := time.Since(start)
	fmt.Printf("Time taken: %v\n", duration)
	if *iterations > 0 {
		fmt.Printf("Average time per iteration: %v\n", duration/time.Duration(*iterations))
	}

	if *memprofile != "" {
		memFile := filepath.Join(*outputDir, *memprofile)
		f, err := os.Create(memFile)
		if err != nil {
			log.Fatalf("Failed to create memory profile file: %v", err)
		}
		defer f.Close()

		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatalf("Failed to write memory profile: %v", err)
		}
		fmt.Printf("Memory profile written to %s\n", memFile)
	}

	if *blockprofile != "" {
		blockFile := filepath.Join(*outputDir, *blockprofile)
		f, err := os.Create(blockFile)
		if err != nil {
			log.Fatalf("Failed to create block profile file: %v", err)
		}
		defer f.Close()

		if err := pprof.Lookup("block").WriteTo(f, 0); err != nil {
			log.Fatalf("Failed to write block profile: %v", err)
		}
		fmt.Printf("Block profile written to %s\n", blockFile)
	}
}
