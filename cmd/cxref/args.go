package main

import (
	"path/filepath"

	"github.com/alecthomas/kingpin"
	"github.com/pkg/errors"
)

var app = kingpin.New(
	"cxref",
	"cxref builds and queries a C/C++ symbol and cross-reference database using libclang.",
).Version(version)

var (
	dbFile        string
	noOutput      bool
	noProgress    bool
	verboseOutput bool

	indexCommand     *kingpin.CmdClause
	storeDir         string
	compdbDir        string
	concurrency      int
	defaultArgs      []string
	systemPrefixes   []string
	dropEmptySymbols bool
	inputFiles       []string

	queryCommand   *kingpin.CmdClause
	queryName      string
	showReferences bool
	maxSuggestions int
)

func init() {
	app.HelpFlag.Short('h')
	app.VersionFlag.Short('v')
	app.HelpFlag.Hidden()

	app.Flag("db", "The symbol database file.").Default("cxref.db").StringVar(&dbFile)
	app.Flag("noOutput", "Do not output progress.").Default("false").BoolVar(&noOutput)
	app.Flag("noProgress", "Do not animate progress.").Default("false").BoolVar(&noProgress)
	app.Flag("verbose", "Display timings and per-unit log lines.").Default("false").BoolVar(&verboseOutput)

	indexCommand = app.Command("index", "Index translation units into the database.")
	indexCommand.Flag("store", "The directory holding precompiled header artifacts.").Default(".cxref").StringVar(&storeDir)
	indexCommand.Flag("compdb", "A directory containing compile_commands.json.").PlaceHolder("dir").StringVar(&compdbDir)
	indexCommand.Flag("concurrency", "The number of jobs to run in parallel (0 means GOMAXPROCS).").Default("0").IntVar(&concurrency)
	indexCommand.Flag("arg", "An argument appended to every unit's compile arguments (repeatable).").PlaceHolder("flag").StringsVar(&defaultArgs)
	indexCommand.Flag("system-prefix", "A path prefix treated as a system include root (repeatable).").PlaceHolder("prefix").StringsVar(&systemPrefixes)
	indexCommand.Flag("drop-empty-symbols", "Discard symbol records whose spelling is empty.").Default("false").BoolVar(&dropEmptySymbols)
	indexCommand.Arg("files", "Translation units to index in addition to the compilation database.").StringsVar(&inputFiles)

	queryCommand = app.Command("query", "Look up the locations recorded for a symbol name.")
	queryCommand.Arg("name", "The symbol name to look up.").Required().StringVar(&queryName)
	queryCommand.Flag("references", "Also list references to each location.").Default("false").BoolVar(&showReferences)
	queryCommand.Flag("suggestions", "The number of near matches to print when the name is unknown.").Default("5").IntVar(&maxSuggestions)
}

func parseArgs(args []string) (string, error) {
	command, err := app.Parse(args)
	if err != nil {
		return "", err
	}

	storeDir, err = filepath.Abs(storeDir)
	if err != nil {
		return "", errors.Wrap(err, "get abspath of store directory")
	}

	if command == indexCommand.FullCommand() && compdbDir == "" && len(inputFiles) == 0 {
		return "", errors.New("nothing to index: pass --compdb or explicit files")
	}

	return command, nil
}
