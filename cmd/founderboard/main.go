package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/elonfeng/founderboard/pkg/calc"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "founderboard",
		Short:        "Discussion board, progress tracker and planning tools for student founders",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(listCmd())
	root.AddCommand(postCmd())
	root.AddCommand(replyCmd())
	root.AddCommand(deleteCmd())
	root.AddCommand(repliesCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(progressCmd())
	root.AddCommand(calcCmd())
	root.AddCommand(importCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid discussion id %q", s)
	}
	return id, nil
}

func listCmd() *cobra.Command {
	var (
		category   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discussions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(category, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only show this category (e.g., startups, ai, ip)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func postCmd() *cobra.Command {
	var topic, category, message string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Start a new discussion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(topic, category, message)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "discussion topic")
	cmd.Flags().StringVar(&category, "category", "general", "category key")
	cmd.Flags().StringVar(&message, "message", "", "opening message")
	return cmd
}

func replyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply <id> <message>",
		Short: "Reply to a discussion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runReply(id, args[1])
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a discussion (sample discussions cannot be deleted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runDelete(id)
		},
	}
}

func repliesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "replies <id>",
		Short: "Show a discussion's replies, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runReplies(id, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func searchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over topics, messages and replies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(args, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "max results (default: from config)")
	return cmd
}

func progressCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show learning progress and achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgress(jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	var undo bool
	set := &cobra.Command{
		Use:   "set <section> <item>",
		Short: "Mark a learning item complete",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgressSet(args[0], args[1], !undo)
		},
	}
	set.Flags().BoolVar(&undo, "undo", false, "mark the item incomplete instead")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Clear progress, the MVP checklist and achievements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgressReset()
		},
	}

	cmd.AddCommand(set, reset)
	return cmd
}

func calcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Planning calculators",
	}

	var idea calc.IdeaInput
	ideaCmd := &cobra.Command{
		Use:   "idea",
		Short: "Score a startup idea",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalcIdea(idea)
		},
	}
	ideaCmd.Flags().StringVar(&idea.Problem, "problem", "", "what problem are you solving")
	ideaCmd.Flags().StringVar(&idea.Audience, "audience", "", "who has this problem")
	ideaCmd.Flags().StringVar(&idea.CurrentSolutions, "current-solutions", "", "how people solve it today")
	ideaCmd.Flags().StringVar(&idea.YourSolution, "solution", "", "your solution")
	ideaCmd.Flags().StringVar(&idea.WillingnessToPay, "pay", "", "willingness to pay: high, medium, low")
	ideaCmd.Flags().StringVar(&idea.MarketSize, "market", "", "market size: large, medium, small")
	ideaCmd.Flags().StringVar(&idea.MVPFeasibility, "mvp", "", "can you build an MVP in 4 weeks: yes, maybe, no")

	var burn, revenue, runway float64
	fundingCmd := &cobra.Command{
		Use:   "funding",
		Short: "Estimate funding needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalcFunding(burn, revenue, runway)
		},
	}
	fundingCmd.Flags().Float64Var(&burn, "burn", 0, "monthly expenses in dollars")
	fundingCmd.Flags().Float64Var(&revenue, "revenue", 0, "monthly revenue in dollars")
	fundingCmd.Flags().Float64Var(&runway, "runway", 12, "months of runway")

	var patentType, method string
	patentCmd := &cobra.Command{
		Use:   "patent",
		Short: "Estimate patent filing cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalcPatent(patentType, method)
		},
	}
	patentCmd.Flags().StringVar(&patentType, "type", "provisional", "utility, design or provisional")
	patentCmd.Flags().StringVar(&method, "method", "self", "self or attorney")

	var stage string
	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Recommend a learning path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalcPath(stage)
		},
	}
	pathCmd.Flags().StringVar(&stage, "stage", "idea", "idea, validating, building or growing")

	cmd.AddCommand(ideaCmd, fundingCmd, patentCmd, pathCmd)
	return cmd
}

func importCmd() *cobra.Command {
	var feeds []string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import configured RSS/Atom feeds as discussions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(feeds)
		},
	}

	cmd.Flags().StringSliceVar(&feeds, "feed", nil, "specific feeds to import by name")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with feed scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
