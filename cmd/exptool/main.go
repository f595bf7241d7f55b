// exptool is a command line front end for the expt library: inspect,
// convert, process and plot experiment tables, and keep a local sqlite
// archive of them.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/micromics/expt"
	"github.com/micromics/expt/internal/monitoring"
	"github.com/micromics/expt/plotting"
	"github.com/micromics/expt/store"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "info":
		runInfo(args)
	case "convert":
		runConvert(args)
	case "process":
		runProcess(args)
	case "heatmap":
		runHeatmap(args)
	case "store":
		runStore(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: exptool <command> [flags]

commands:
  info      print shape, provenance and metadata columns of a table
  convert   re-encode a table (binary/json/txt biom)
  process   read, filter, normalize, sort and save a table
  heatmap   render a table as a PNG or HTML heatmap
  store     manage the local experiment archive (put/get/list/delete)

run 'exptool <command> -h' for command flags`)
}

// readFlags is the flag subset shared by every command that loads a table.
type readFlags struct {
	sampleMD  *string
	featureMD *string
	format    *string
	verbose   *bool
}

func addReadFlags(fs *flag.FlagSet) *readFlags {
	return &readFlags{
		sampleMD:  fs.String("sample-metadata", "", "tab-delimited sample metadata table"),
		featureMD: fs.String("feature-metadata", "", "tab-delimited feature metadata table"),
		format:    fs.String("format", "biom", "input format: biom, openms, openms_transpose"),
		verbose:   fs.Bool("v", false, "enable debug logging"),
	}
}

func (rf *readFlags) load(dataFile string) *expt.Experiment {
	if *rf.verbose {
		monitoring.SetDebug(log.Printf)
	}
	e, err := expt.Read(dataFile, expt.ReadOptions{
		SampleMetadata:  *rf.sampleMD,
		FeatureMetadata: *rf.featureMD,
		Format:          *rf.format,
	})
	if err != nil {
		log.Fatalf("read %s: %v", dataFile, err)
	}
	return e
}

func runInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	rf := addReadFlags(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		log.Fatal("usage: exptool info [flags] <data-file>")
	}

	e := rf.load(fs.Arg(0))
	fmt.Println(e)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, k := range []string{"experiment_id", "data_file", "data_md5", "map_md5", "normalized"} {
		if v, ok := e.Metadata[k]; ok && v != "" {
			fmt.Fprintf(w, "%s\t%v\n", k, v)
		}
	}
	fmt.Fprintf(w, "sample columns\t%s\n", strings.Join(e.SampleMetadata.Columns(), ", "))
	fmt.Fprintf(w, "feature columns\t%s\n", strings.Join(e.FeatureMetadata.Columns(), ", "))
	w.Flush()
}

func runConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	rf := addReadFlags(fs)
	out := fs.String("out", "", "output path (required)")
	outFormat := fs.String("out-format", "binary", "output encoding: binary, json, txt")
	fs.Parse(args)
	if fs.NArg() != 1 || *out == "" {
		log.Fatal("usage: exptool convert [flags] -out <path> <data-file>")
	}

	e := rf.load(fs.Arg(0))
	if err := e.SaveBiom(*out, *outFormat); err != nil {
		log.Fatalf("save %s: %v", *out, err)
	}
	log.Printf("wrote %s (%s)", *out, *outFormat)
}

func runProcess(args []string) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	rf := addReadFlags(fs)
	minReads := fs.Float64("min-reads", 0, "drop samples with total reads below this")
	minAbundance := fs.Float64("min-abundance", 0, "drop features with total abundance below this")
	normalize := fs.Float64("normalize", 0, "normalize each sample to this total")
	sortField := fs.String("sort-field", "", "sort samples by this metadata field")
	cluster := fs.Bool("cluster", false, "cluster features by profile similarity")
	out := fs.String("out", "", "output prefix (required); writes <prefix>.biom and metadata tables")
	outFormat := fs.String("out-format", "binary", "output encoding: binary, json, txt")
	fs.Parse(args)
	if fs.NArg() != 1 || *out == "" {
		log.Fatal("usage: exptool process [flags] -out <prefix> <data-file>")
	}

	e := rf.load(fs.Arg(0))
	var err error
	if *minReads > 0 {
		if _, err = e.FilterByData("sum_abundance", expt.Samples, *minReads, true); err != nil {
			log.Fatalf("filter samples: %v", err)
		}
	}
	if *minAbundance > 0 {
		if _, err = e.FilterMinAbundance(*minAbundance, true); err != nil {
			log.Fatalf("filter features: %v", err)
		}
	}
	if *normalize > 0 {
		if _, err = e.Normalize(*normalize, expt.Samples, true); err != nil {
			log.Fatalf("normalize: %v", err)
		}
	}
	if *sortField != "" {
		if _, err = e.SortSamples(*sortField, true); err != nil {
			log.Fatalf("sort samples: %v", err)
		}
	}
	if *cluster {
		if _, err = e.ClusterData("euclidean", expt.Features,
			[]expt.Transformer{expt.LogNStep{}, expt.ScaleStep{Axis: expt.Features}}, true); err != nil {
			log.Fatalf("cluster features: %v", err)
		}
	}

	if err := e.Save(*out, *outFormat); err != nil {
		log.Fatalf("save %s: %v", *out, err)
	}
	log.Printf("wrote %s.biom: %v", *out, e)
}

func runHeatmap(args []string) {
	fs := flag.NewFlagSet("heatmap", flag.ExitOnError)
	rf := addReadFlags(fs)
	out := fs.String("out", "", "output path, .png or .html (required)")
	title := fs.String("title", "", "plot title")
	raw := fs.Bool("raw", false, "plot raw values instead of log2")
	fs.Parse(args)
	if fs.NArg() != 1 || *out == "" {
		log.Fatal("usage: exptool heatmap [flags] -out <path> <data-file>")
	}

	e := rf.load(fs.Arg(0))
	o := plotting.HeatmapOptions{Title: *title, Log: !*raw}
	var err error
	switch {
	case strings.HasSuffix(*out, ".html"):
		err = plotting.SaveHTML(e, *out, o)
	case strings.HasSuffix(*out, ".png"):
		err = plotting.SavePNG(e, *out, o)
	default:
		log.Fatalf("output %s must end in .png or .html", *out)
	}
	if err != nil {
		log.Fatalf("render heatmap: %v", err)
	}
	log.Printf("wrote %s", *out)
}

func runStore(args []string) {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	rf := addReadFlags(fs)
	dbPath := fs.String("db", "experiments.db", "path to the experiment archive")
	out := fs.String("out", "", "output prefix for 'get'")
	fs.Parse(args)
	if fs.NArg() < 1 {
		log.Fatal("usage: exptool store [flags] put <data-file> | get <id> | list | delete <id>")
	}

	s, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("open store %s: %v", *dbPath, err)
	}
	defer s.Close()

	switch action := fs.Arg(0); action {
	case "put":
		if fs.NArg() != 2 {
			log.Fatal("usage: exptool store put <data-file>")
		}
		e := rf.load(fs.Arg(1))
		id, err := s.Put(e)
		if err != nil {
			log.Fatalf("store experiment: %v", err)
		}
		fmt.Println(id)

	case "get":
		if fs.NArg() != 2 || *out == "" {
			log.Fatal("usage: exptool store -out <prefix> get <id>")
		}
		e, err := s.Get(fs.Arg(1))
		if err != nil {
			log.Fatalf("load experiment: %v", err)
		}
		if err := e.Save(*out, "binary"); err != nil {
			log.Fatalf("save %s: %v", *out, err)
		}
		log.Printf("wrote %s.biom: %v", *out, e)

	case "list":
		infos, err := s.List()
		if err != nil {
			log.Fatalf("list experiments: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDESCRIPTION\tSAMPLES\tFEATURES\tCREATED")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
				info.ID, info.Description, info.Samples, info.Features,
				info.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		w.Flush()

	case "delete":
		if fs.NArg() != 2 {
			log.Fatal("usage: exptool store delete <id>")
		}
		if err := s.Delete(fs.Arg(1)); err != nil {
			log.Fatalf("delete experiment: %v", err)
		}

	default:
		log.Fatalf("unknown store action: %s", action)
	}
}
