package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"

	"puzzle-helper/internal/api"
	"puzzle-helper/internal/upload"
	"puzzle-helper/internal/validate"
)

func listCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your puzzles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.RequireUser(cmd.Context()); err != nil {
				return err
			}

			puzzles, err := a.API.ListPuzzles(cmd.Context(), a.Session.UserID())
			if err != nil {
				return fmt.Errorf("failed to fetch puzzle list: %w", err)
			}

			if len(puzzles) == 0 {
				a.printf("No puzzles yet. Create one with: pzl create --name <name>\n")
				return nil
			}

			a.printf("Puzzles (%d)\n", len(puzzles))
			w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPIECES\tSTATUS\tUPDATED")
			for _, p := range puzzles {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					p.PuzzleID, p.PuzzleName, p.PieceCount, p.Status,
					p.UpdatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}
}

func createCmd(a *App) *cobra.Command {
	var name string
	var pieces int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new puzzle project",
		Long: `Register a new puzzle project. The record is created without an image;
attach one afterwards with 'pzl upload'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validation happens before any network call.
			if err := validate.PuzzleName(name); err != nil {
				return err
			}
			if err := validate.PieceCount(pieces); err != nil {
				return err
			}

			if _, err := a.RequireUser(cmd.Context()); err != nil {
				return err
			}

			resp, err := a.API.CreatePuzzle(cmd.Context(), api.CreateRequest{
				PuzzleName: name,
				PieceCount: pieces,
				UserID:     a.Session.UserID(),
			})
			if err != nil {
				return fmt.Errorf("failed to create puzzle: %w", err)
			}

			a.printf("Created puzzle %q (%d pieces)\n", resp.PuzzleName, resp.PieceCount)
			a.printf("Detail: %s/puzzles/%s\n", a.Cfg.WebBaseURL, resp.PuzzleID)
			a.printf("Next:   pzl upload %s <image-file>\n", resp.PuzzleID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "puzzle display name (required)")
	cmd.Flags().IntVar(&pieces, "pieces", 300, fmt.Sprintf("piece count, one of %v", api.PieceCounts))
	cmd.MarkFlagRequired("name")
	return cmd
}

func showCmd(a *App) *cobra.Command {
	var withQR bool

	cmd := &cobra.Command{
		Use:   "show <puzzle-id>",
		Short: "Show one puzzle's details and status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.RequireUser(cmd.Context()); err != nil {
				return err
			}

			puzzle, err := a.API.GetPuzzle(cmd.Context(), args[0], a.Session.UserID())
			if err != nil {
				return fmt.Errorf("failed to fetch puzzle: %w", err)
			}

			printPuzzle(a, puzzle)

			if withQR {
				a.printf("\nOpen in the web app:\n")
				qrterminal.GenerateHalfBlock(
					fmt.Sprintf("%s/puzzles/%s", a.Cfg.WebBaseURL, puzzle.PuzzleID),
					qrterminal.L, a.Out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withQR, "qr", false, "print a QR code linking to the puzzle's web page")
	return cmd
}

func uploadCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <puzzle-id> <image-file>",
		Short: "Attach an image to a pending puzzle",
		Long: `Attach an image to a pending puzzle. The client first requests a
short-lived upload URL from the API, then PUTs the file bytes directly to
object storage, then re-fetches the puzzle so the new status is shown.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.RequireUser(cmd.Context()); err != nil {
				return err
			}

			flow := upload.NewFlow(a.API, a.Logger)
			puzzle, err := flow.Run(cmd.Context(), args[0], a.Session.UserID(), args[1])
			if err != nil {
				return err
			}

			a.printf("Upload complete.\n\n")
			printPuzzle(a, puzzle)
			return nil
		},
	}
}

func printPuzzle(a *App, p *api.Puzzle) {
	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", p.PuzzleID)
	fmt.Fprintf(w, "Name:\t%s\n", p.PuzzleName)
	fmt.Fprintf(w, "Pieces:\t%d\n", p.PieceCount)
	fmt.Fprintf(w, "Status:\t%s\n", p.Status)
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created:\t%s\n", p.CreatedAt.Local().Format(time.DateTime))
		fmt.Fprintf(w, "Updated:\t%s\n", p.UpdatedAt.Local().Format(time.DateTime))
	}
	w.Flush()

	switch {
	case p.Status.Pending():
		a.printf("\nNo image attached yet. Attach one with: pzl upload %s <image-file>\n", p.PuzzleID)
	case p.S3Key != "":
		a.printf("\nImage attached (%s, stored as %s).\n", p.FileName, p.S3Key)
	default:
		// Non-pending without a storage key should not happen, but the
		// record is still displayable.
		a.printf("\nImage attached, but no storage key is recorded.\n")
	}
}
