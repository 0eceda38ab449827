// Package fileprocessor handles file loading and processing operations
package fileprocessor

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/pycgodisasm/internal/disasm"
	"github.com/retroenv/pycgodisasm/internal/loader"
	"github.com/retroenv/pycgodisasm/internal/marshal"
	"github.com/retroenv/pycgodisasm/internal/opcodes"
	"github.com/retroenv/pycgodisasm/internal/options"
	"github.com/retroenv/pycgodisasm/internal/writer"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// PrintBanner prints the application banner unless quiet mode is active.
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}
	fmt.Println("[--------------------------------------------]")
	fmt.Println("[ pycgodisasm - Python bytecode disassembler ]")
	fmt.Printf("[--------------------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}

// ProcessFile handles the complete file processing workflow: container
// header parsing, object graph decoding and listing output.
func ProcessFile(ctx context.Context, logger *log.Logger, opts options.Program,
	disasmOptions options.Disassembler) error {

	artifact, err := loadArtifact(opts)
	if err != nil {
		return err
	}

	if disasmOptions.Version.IsZero() {
		disasmOptions.Version = artifact.Version
	}

	table, err := opcodes.ForVersion(disasmOptions.Version)
	if err != nil {
		return err
	}

	logger.Info("Processing compiled artifact",
		log.String("file", opts.Input),
		log.String("version", disasmOptions.Version.String()),
		log.Int("payload_size", len(artifact.Payload)))

	value, err := marshal.Decode(artifact.Payload, disasmOptions.Version)
	if err != nil {
		return fmt.Errorf("decoding object graph: %w", err)
	}
	code, ok := value.(*marshal.Code)
	if !ok {
		return fmt.Errorf("top level value is %T, expected a code object", value)
	}

	outputFile, err := createWriter(opts)
	if err != nil {
		return err
	}
	defer func() {
		if closer, ok := outputFile.(io.Closer); ok && outputFile != os.Stdout {
			_ = closer.Close()
		}
	}()

	listingWriter := writer.New(outputFile, disasmOptions)
	processed := set.New[*marshal.Code]()
	return disassembleCode(ctx, logger, listingWriter, code, table,
		disasmOptions, processed, true)
}

// disassembleCode writes the listing of one code object and, when
// recursion is enabled, of every code object in its constant pool,
// depth first. Shared code objects are listed only once.
func disassembleCode(ctx context.Context, logger *log.Logger, listingWriter *writer.Writer,
	code *marshal.Code, table *opcodes.Table, disasmOptions options.Disassembler,
	processed set.Set[*marshal.Code], topLevel bool) error {

	if err := ctx.Err(); err != nil {
		return err
	}
	if processed.Contains(code) {
		return nil
	}
	processed.Add(code)

	if !topLevel {
		if err := listingWriter.WriteHeader(code); err != nil {
			return fmt.Errorf("writing listing header: %w", err)
		}
	}

	dis := disasm.New(logger, code, table, disasmOptions)
	instructions, err := dis.Disassemble()
	if err != nil {
		return fmt.Errorf("disassembling %s: %w", code.Name, err)
	}
	if err := listingWriter.WriteListing(code, instructions); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}

	if !disasmOptions.Recurse || code.Consts == nil {
		return nil
	}
	for _, item := range code.Consts.Items {
		nested, ok := item.(*marshal.Code)
		if !ok {
			continue
		}
		if err := disassembleCode(ctx, logger, listingWriter, nested, table,
			disasmOptions, processed, false); err != nil {
			return err
		}
	}
	return nil
}

func loadArtifact(opts options.Program) (*loader.Artifact, error) {
	file, err := os.Open(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("opening file '%s': %w", opts.Input, err)
	}
	defer func() {
		_ = file.Close()
	}()

	artifact, err := loader.Load(file)
	if err != nil {
		return nil, fmt.Errorf("reading file '%s': %w", opts.Input, err)
	}
	return artifact, nil
}

func createWriter(opts options.Program) (io.Writer, error) {
	if opts.Output == "" {
		return os.Stdout, nil
	}
	file, err := os.Create(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("creating file '%s': %w", opts.Output, err)
	}
	return file, nil
}
