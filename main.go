package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"tally/a1"
	"tally/controller"
	"tally/grid"
	"tally/kernel"
	"tally/repl"
	"tally/server"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	sub := os.Args[1]
	switch sub {
	case "-h", "--help", "help":
		usage()
		return
	case "serve":
		os.Exit(serveCommand(os.Args[2:]))
	case "repl":
		os.Exit(replCommand(os.Args[2:]))
	case "export":
		os.Exit(exportCommand(os.Args[2:]))
	case "import":
		os.Exit(importCommand(os.Args[2:]))
	case "import-pg":
		os.Exit(importPgCommand(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", sub)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  tally <command> [arguments]\n")
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  serve [addr]                       start the grid server (default :8080)\n")
	fmt.Fprintf(os.Stderr, "  repl [file.grid]                   open an interactive shell\n")
	fmt.Fprintf(os.Stderr, "  export <in.grid> <out.xlsx>        write a workbook from a grid file\n")
	fmt.Fprintf(os.Stderr, "  import <in.xlsx> <out.grid>        build a grid file from a workbook\n")
	fmt.Fprintf(os.Stderr, "  import-pg <dsn> <query> <out.grid> import a Postgres query as a table\n")
	fmt.Fprintf(os.Stderr, "  help                               show this help message\n")
	fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
	fmt.Fprintf(os.Stderr, "  TALLY_STORE     bbolt store path for serve (default tally.db)\n")
	fmt.Fprintf(os.Stderr, "  TALLY_KERNEL    kernel connection file for async code cells\n")
}

func serveCommand(args []string) int {
	addr := ":8080"
	if len(args) > 0 {
		addr = args[0]
		if !strings.Contains(addr, ":") {
			addr = ":" + addr
		}
	}

	storePath := os.Getenv("TALLY_STORE")
	if storePath == "" {
		storePath = "tally.db"
	}
	store, err := server.OpenStore(storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		return 1
	}
	defer store.Close()

	const docID = "default"
	c := controller.NewGridController()
	if data, err := store.Load(docID); err == nil && data != nil {
		g, err := grid.ImportGrid(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load document: %v\n", err)
			return 1
		}
		c = controller.NewGridControllerFrom(g)
	}

	srv := server.New(c, store, docID)
	if connFile := os.Getenv("TALLY_KERNEL"); connFile != "" {
		config, err := kernel.LoadConnectionInfo(connFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kernel config: %v\n", err)
			return 1
		}
		client, err := kernel.NewClient(config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kernel connect: %v\n", err)
			return 1
		}
		defer client.Close()
		srv.AttachKernel(client)
	}

	if err := srv.ListenAndServe(addr); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		return 1
	}
	return 0
}

func replCommand(args []string) int {
	c := controller.NewGridController()
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return 1
		}
		g, err := grid.ImportGrid(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load error: %v\n", err)
			return 1
		}
		c = controller.NewGridControllerFrom(g)
	}
	if err := repl.New(c).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "repl error: %v\n", err)
		return 1
	}
	return 0
}

func exportCommand(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: tally export <in.grid> <out.xlsx>")
		return 2
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "read error: %v\n", err)
		return 1
	}
	g, err := grid.ImportGrid(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load error: %v\n", err)
		return 1
	}
	out, err := os.Create(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "create error: %v\n", err)
		return 1
	}
	defer out.Close()
	if err := g.ExportXlsx(out); err != nil {
		fmt.Fprintf(os.Stderr, "export error: %v\n", err)
		return 1
	}
	return 0
}

func importCommand(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: tally import <in.xlsx> <out.grid>")
		return 2
	}
	in, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "open error: %v\n", err)
		return 1
	}
	defer in.Close()
	g, err := grid.ImportXlsx(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import error: %v\n", err)
		return 1
	}
	data, err := g.Export()
	if err != nil {
		fmt.Fprintf(os.Stderr, "serialize error: %v\n", err)
		return 1
	}
	if err := os.WriteFile(args[1], data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write error: %v\n", err)
		return 1
	}
	return 0
}

func importPgCommand(args []string) int {
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: tally import-pg <dsn> <query> <out.grid>")
		return 2
	}
	c := controller.NewGridController()
	sp := a1.SheetPos{Sheet: c.Grid().FirstSheetID(), Pos: a1.Pos{X: 1, Y: 1}}
	if _, err := c.ImportPostgres(context.Background(), sp, args[0], args[1], "Import"); err != nil {
		fmt.Fprintf(os.Stderr, "import error: %v\n", err)
		return 1
	}
	data, err := c.Grid().Export()
	if err != nil {
		fmt.Fprintf(os.Stderr, "serialize error: %v\n", err)
		return 1
	}
	if err := os.WriteFile(args[2], data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write error: %v\n", err)
		return 1
	}
	return 0
}
