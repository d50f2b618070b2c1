// cmd/tools/brand-catalog/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"invoice-intake/internal/catalog"
)

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)

	listPath := listCmd.String("path", "", "Catalog file (built-in catalog when empty)")
	validatePath := validateCmd.String("path", "configs/brands.json", "Catalog file to validate")
	exportPath := exportCmd.String("out", "configs/brands.json", "Destination file")
	exportVersion := exportCmd.String("version", "1.0.0", "Catalog version")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		cat, err := catalog.Load(*listPath, "")
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}
		list(cat)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if _, err := catalog.LoadFile(*validatePath); err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Catalog validation passed.")

	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := catalog.Default().ToFile(*exportVersion).Save(*exportPath); err != nil {
			fmt.Printf("Error exporting catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Built-in catalog written to %s\n", *exportPath)

	case "help":
		fallthrough
	default:
		help()
	}
}

func list(cat *catalog.Catalog) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, b := range cat.Brands() {
		marker := ""
		if b.Key == cat.DefaultKey() {
			marker = " (default)"
		}
		fmt.Fprintf(w, "%s%s\t%s\n", b.Key, marker, b.DisplayName)
		for _, t := range b.Tiers {
			fmt.Fprintf(w, "  %s\t%s\t£%s\t%d videos\t%s GMV\n", t.Key, t.Name, t.Fee.StringFixed(2), t.Videos, t.GMVRange)
		}
	}
	w.Flush()
}

func help() {
	fmt.Println("Usage: brand-catalog <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  list      Print brands and tiers (-path to read a catalog file)")
	fmt.Println("  validate  Check a catalog file (-path)")
	fmt.Println("  export    Write the built-in catalog as JSON (-out, -version)")
	fmt.Println("  help      Show this message")
}
