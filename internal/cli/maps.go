package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindweave/pkg/branch"
	"github.com/matzehuels/mindweave/pkg/engine"
	"github.com/matzehuels/mindweave/pkg/snapshot"
	"github.com/matzehuels/mindweave/pkg/store"
)

// newCommand creates the "new" command.
func (c *CLI) newCommand() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "new <map> [root text]",
		Short: "Create a mind map",
		Long: `Create a mind map with a single root node and save it under the given name.

With --from the map is imported from a snapshot JSON file instead.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			if len(args) == 2 {
				root = args[1]
			}
			return c.runNew(cmd.Context(), args[0], root, from)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "import a snapshot file")
	return cmd
}

func (c *CLI) runNew(ctx context.Context, name, rootText, from string) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if _, err := st.Get(ctx, name); err == nil {
		return fmt.Errorf("map %s already exists", name)
	}

	var eng *engine.Engine
	if from != "" {
		doc, err := snapshot.ReadFile(from)
		if err != nil {
			return fmt.Errorf("read %s: %w", from, err)
		}
		eng, err = c.newEngine(name, doc, nil)
		if err != nil {
			return fmt.Errorf("import %s: %w", from, err)
		}
	} else {
		eng, err = engine.New(rootText, engine.WithLogger(c.Logger))
		if err != nil {
			return err
		}
	}
	if err := c.saveMap(ctx, st, name, eng); err != nil {
		return err
	}

	printSuccess("Created map %s", name)
	printStats(eng.Len(), len(eng.Branches()), false)
	printNextStep("Add an idea", fmt.Sprintf("%s add %s %q", appName, name, "First idea"))
	return nil
}

// addCommand creates the "add" command.
func (c *CLI) addCommand() *cobra.Command {
	var (
		parent string
		tags   []string
		notes  string
		link   string
		kind   string
	)
	cmd := &cobra.Command{
		Use:   "add <map> <text>",
		Short: "Add a node to a mind map",
		Long: `Add a node under --parent (default: the root).

--link adds a branch from the new node to another node; --kind selects its
type (associative, dependency, sequence, conflict, reference).`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: c.completeMap,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, st, err := c.loadMap(ctx, args[0], nil)
			if err != nil {
				return err
			}
			defer st.Close()

			id, err := eng.CreateNode(c.userID, args[1], parent, nil)
			if err != nil {
				return err
			}
			for _, tag := range tags {
				if err := eng.AddTag(c.userID, id, tag); err != nil {
					return err
				}
			}
			if notes != "" {
				if err := eng.UpdateNotes(c.userID, id, notes); err != nil {
					return err
				}
			}
			if link != "" {
				k := branch.Kind(kind)
				if !k.Valid() || k == branch.KindHierarchical {
					return fmt.Errorf("invalid branch kind %q", kind)
				}
				if _, err := eng.CreateBranch(c.userID, branch.New("", id, link, k)); err != nil {
					return err
				}
			}
			if err := c.saveMap(ctx, st, args[0], eng); err != nil {
				return err
			}
			printSuccess("Added %s", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent node ID (default: root)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag to attach (repeatable)")
	cmd.Flags().StringVar(&notes, "notes", "", "node notes")
	cmd.Flags().StringVar(&link, "link", "", "node ID to link the new node to")
	cmd.Flags().StringVar(&kind, "kind", string(branch.KindAssociative), "branch kind for --link")
	return cmd
}

// rmCommand creates the "rm" command.
func (c *CLI) rmCommand() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "rm <map> [node]",
		Short: "Delete a node, or a whole map",
		Long: `Delete a node from a map. Without --cascade the node's children move up to
its parent. Without a node argument the whole map is deleted.`,
		Args: cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeMapThenNodes(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				st, err := c.openStore(ctx)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer st.Close()
				if err := st.Delete(ctx, args[0]); err != nil {
					return err
				}
				printSuccess("Deleted map %s", args[0])
				return nil
			}

			eng, st, err := c.loadMap(ctx, args[0], nil)
			if err != nil {
				return err
			}
			defer st.Close()
			before := eng.Len()
			if err := eng.DeleteNode(c.userID, args[1], cascade); err != nil {
				return err
			}
			if err := c.saveMap(ctx, st, args[0], eng); err != nil {
				return err
			}
			printSuccess("Deleted %d node(s)", before-eng.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "delete the node's descendants too")
	return cmd
}

// listCommand creates the "list" command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved mind maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			names, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("No maps yet")
				return nil
			}
			for _, name := range names {
				doc, err := st.Get(ctx, name)
				if err != nil {
					printWarning("%s: %v", name, err)
					continue
				}
				printKeyValue(name, fmt.Sprintf("%s (%d nodes)", doc.Title(), len(doc.Nodes)))
			}
			return nil
		},
	}
}

// showCommand creates the "show" command.
func (c *CLI) showCommand() *cobra.Command {
	var (
		ids    bool
		asJSON bool
		from   string
	)
	cmd := &cobra.Command{
		Use:   "show <map>",
		Short: "Print a mind map as an outline",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: c.completeMap,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, st, err := c.loadMap(ctx, args[0], nil)
			if err != nil {
				return err
			}
			defer st.Close()

			if asJSON {
				return snapshot.Write(eng.Snapshot(), stdout)
			}
			start := eng.Root()
			if from != "" {
				if _, ok := eng.Node(from); !ok {
					return fmt.Errorf("node %s not found", from)
				}
				start = from
			}
			fmt.Fprintln(stdout, renderOutline(eng, start, ids))
			var cross []string
			for _, b := range eng.Branches() {
				if b.Kind == branch.KindHierarchical {
					continue
				}
				src, _ := eng.Node(b.Source)
				dst, _ := eng.Node(b.Target)
				cross = append(cross, fmt.Sprintf("%s %s %s (%s)", src.Text, iconArrow, dst.Text, b.Kind))
			}
			if len(cross) > 0 {
				fmt.Fprintln(stdout)
				for _, line := range cross {
					printDetail("%s", line)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&ids, "ids", false, "show node IDs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot document")
	cmd.Flags().StringVar(&from, "from", "", "start the outline at this node")
	return cmd
}

// searchCommand creates the "search" command.
func (c *CLI) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <map> <query>",
		Short: "Find nodes whose text or notes contain a query",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: c.completeMap,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, st, err := c.loadMap(ctx, args[0], nil)
			if err != nil {
				return err
			}
			defer st.Close()

			hits := eng.Search(args[1])
			if len(hits) == 0 {
				printInfo("No matches for %q", args[1])
				return nil
			}
			for _, n := range hits {
				printInfo("%s %s", StyleValue.Render(n.Text), StyleDim.Render(n.ID))
			}
			return nil
		},
	}
}

// pathCommand creates the "path" command.
func (c *CLI) pathCommand() *cobra.Command {
	var maxDepth int
	cmd := &cobra.Command{
		Use:   "path <map> <from> <to>",
		Short: "Find the shortest branch path between two nodes",
		Args:  cobra.ExactArgs(3),
		ValidArgsFunction: c.completeMapThenNodes(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, st, err := c.loadMap(ctx, args[0], nil)
			if err != nil {
				return err
			}
			defer st.Close()

			path, err := eng.FindPath(args[1], args[2], maxDepth)
			if err != nil {
				return err
			}
			if path == nil {
				printInfo("No path from %s to %s", args[1], args[2])
				return nil
			}
			texts := make([]string, len(path))
			for i, id := range path {
				n, _ := eng.Node(id)
				texts[i] = n.Text
			}
			printSuccess("%s", strings.Join(texts, " "+iconArrow+" "))
			printDetail("%d branches", len(path)-1)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum number of branches (0: unbounded)")
	return cmd
}

// validateCommand creates the "validate" command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <map|file.json>",
		Short: "Check a map or snapshot file for integrity violations",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: c.completeMap,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := c.readDocument(ctx, args[0])
			if err != nil {
				return err
			}
			if err := doc.Validate(); err != nil {
				printError("%s is invalid", args[0])
				return err
			}
			eng, err := c.newEngine(args[0], doc, nil)
			if err != nil {
				printError("%s is invalid", args[0])
				return err
			}
			if err := eng.Validate(); err != nil {
				printError("%s is invalid", args[0])
				return err
			}
			printSuccess("%s is valid", args[0])
			printStats(eng.Len(), len(eng.Branches()), false)
			return nil
		},
	}
}

// readDocument reads arg as a snapshot file when it names one, and from the
// store otherwise.
func (c *CLI) readDocument(ctx context.Context, arg string) (snapshot.Document, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return snapshot.ReadFile(arg)
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return snapshot.Document{}, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return st.Get(ctx, arg)
}
