package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nemanja-m/scatter/examples/grep"
	"github.com/nemanja-m/scatter/examples/wordcount"
	"github.com/nemanja-m/scatter/pkg/core"
	"github.com/nemanja-m/scatter/pkg/strategy"
)

var (
	wcInputs    []string
	wcSubstr    string
	wcPartition string
)

var wordcountCmd = &cobra.Command{
	Use:   "wordcount",
	Short: "Count words, or occurrences of a substring, in text files",
	Example: `  # count words of every .txt file below data/, one bundle per line
  scatter wordcount --input 'data/**/*.txt'

  # count occurrences of "a" in isolated worker processes
  scatter wordcount --input notes.txt --substr a --mode isolated`,
	Args: cobra.NoArgs,
	RunE: runWordcount,
}

func init() {
	rootCmd.AddCommand(wordcountCmd)

	wordcountCmd.Flags().StringArrayVarP(&wcInputs, "input", "i", nil, "input file glob, may be repeated")
	wordcountCmd.Flags().StringVar(&wcSubstr, "substr", "", "count this substring instead of words")
	wordcountCmd.Flags().StringVar(&wcPartition, "partition", "lines", "partitioning (lines, elements)")
	_ = wordcountCmd.MarkFlagRequired("input")
}

func runWordcount(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	files, err := wordcount.FindFiles(wcInputs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files matched the input patterns: %v", wcInputs)
	}
	text, err := wordcount.ReadText(files)
	if err != nil {
		return err
	}

	task := core.TaskConfig{
		Name:      wordcount.TaskCountWords,
		Func:      wordcount.CountWords,
		MappedArg: core.ArgAt(0, "text"),
		Reducer:   strategy.SumInts(),
		Policy:    a.policy,
	}
	args := core.NewArgs(text)
	if wcSubstr != "" {
		task.Name = grep.TaskCountSubstrings
		task.Func = grep.CountSubstrings
		args = args.WithKeyword(grep.SubstrKey, wcSubstr)
	}

	switch wcPartition {
	case "lines":
		task.Partition = core.Chunked
		task.Divider = strategy.Lines()
	case "elements":
		task.Partition = core.ElementWise
		args.Positional[0] = strings.Split(text, "\n")
	default:
		return fmt.Errorf("unknown partitioning: %s", wcPartition)
	}

	countFn, err := a.engine.Distribute(task)
	if err != nil {
		return err
	}
	total, err := countFn(args)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), total)
	return a.flushMetrics()
}
