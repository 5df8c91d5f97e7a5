package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/remitdesk/internal/adapter/http/dto"
	"github.com/iho/remitdesk/internal/console"
	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/infrastructure/auth"
)

func quoteCmd() *cobra.Command {
	var (
		face, base, delta, waiting string
		discount, fromNet, asJSON  bool
		destination                string
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute a settlement offline from explicit terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := parseTerms(base, delta, waiting)
			if err != nil {
				return err
			}

			amount, err := decimal.NewFromString(face)
			if err != nil {
				return fmt.Errorf("invalid --face %q: %w", face, err)
			}
			if fromNet {
				amount, err = domain.GrossFromNet(amount, terms.Effective(), discount)
				if err != nil {
					return fmt.Errorf("cannot reverse net amount: %w", err)
				}
			}

			dest := domain.NormalizeDestination(destination)
			q := domain.BuildQuote(domain.QuoteInput{
				FaceAmount:   &amount,
				Terms:        terms,
				DiscountMode: discount,
				Destination:  dest,
			})

			out := cmd.OutOrStdout()
			if asJSON {
				resp := dto.QuoteFromDomain(q)
				resp.Destination = dest
				return printJSON(out, resp)
			}
			if fromNet {
				fmt.Fprintf(out, "Face amount:  %s\n", domain.RoundMoney(amount).StringFixed(2))
			}
			printQuote(out, q)
			return nil
		},
	}

	cmd.Flags().StringVar(&face, "face", "", "Face amount (net amount with --from-net)")
	cmd.Flags().StringVar(&base, "base", "0", "Base commission percentage")
	cmd.Flags().StringVar(&delta, "delta", "0", "Manual delta percentage")
	cmd.Flags().StringVar(&waiting, "waiting", "0", "Waiting-days surcharge percentage")
	cmd.Flags().BoolVar(&discount, "discount", false, "Face amount already contains the commission")
	cmd.Flags().BoolVar(&fromNet, "from-net", false, "Treat --face as the net amount and derive the face amount")
	cmd.Flags().StringVar(&destination, "destination", "", "Destination descriptor as JSON")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the quote as JSON")
	_ = cmd.MarkFlagRequired("face")

	return cmd
}

func previewCmd(opts *options) *cobra.Command {
	var (
		face, delta          string
		registered, delivery string
		discount             bool
	)

	cmd := &cobra.Command{
		Use:   "preview SERVICE_ID",
		Short: "Preview a settlement with the service's commission terms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}

			amount, err := decimal.NewFromString(face)
			if err != nil {
				return fmt.Errorf("invalid --face %q: %w", face, err)
			}
			d, err := decimal.NewFromString(delta)
			if err != nil {
				return fmt.Errorf("invalid --delta %q: %w", delta, err)
			}
			start, err := optionalDate(registered)
			if err != nil {
				return fmt.Errorf("invalid --registered: %w", err)
			}
			end, err := optionalDate(delivery)
			if err != nil {
				return fmt.Errorf("invalid --delivery: %w", err)
			}

			ctx := cmd.Context()
			draft := console.NewDraft(client, opts.logger(), console.WithLookupTimeout(opts.timeout))
			draft.SetFaceAmount(&amount)
			draft.SetDelta(d)
			draft.SetDiscountMode(discount)
			draft.SetService(ctx, args[0])
			draft.SetDates(ctx, start, end)
			draft.Wait()

			printQuote(cmd.OutOrStdout(), draft.Preview())
			return nil
		},
	}

	cmd.Flags().StringVar(&face, "face", "", "Face amount")
	cmd.Flags().StringVar(&delta, "delta", "0", "Manual delta percentage")
	cmd.Flags().StringVar(&registered, "registered", "", "Registration date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&delivery, "delivery", "", "Delivery date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&discount, "discount", false, "Face amount already contains the commission")
	_ = cmd.MarkFlagRequired("face")

	return cmd
}

func commissionByDayCmd(opts *options) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "commission-by-day SERVICE_ID",
		Short: "Resolve the waiting-days surcharge of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			start, err := optionalDate(from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			end, err := optionalDate(to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			pct, err := client.CommissionByDay(cmd.Context(), args[0], start, end)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%%\n", pct.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD)")

	return cmd
}

func groupsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Transaction group operations",
	}

	listCmd := &cobra.Command{
		Use:   "list CLIENT_ID",
		Short: "List the groups of a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			groups, err := client.ListGroups(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, g := range groups {
				fmt.Fprintf(out, "%-26s  %-7s  %-24s  %s\n", g.ID, g.Color, truncate(g.Name, 24), truncate(g.Note, 40))
			}
			return nil
		},
	}

	var limit int
	toggleCmd := &cobra.Command{
		Use:   "toggle CLIENT_ID GROUP_ID TRANSACTION_ID...",
		Short: "Move transactions into a group, or out of it when already there",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			return toggleGroups(cmd.Context(), cmd.OutOrStdout(), client, args[0], args[1], args[2:], limit, opts)
		},
	}
	toggleCmd.Flags().IntVar(&limit, "limit", 100, "Transactions of the client to load")

	cmd.AddCommand(listCmd, toggleCmd)
	return cmd
}

type transactionLister interface {
	console.GroupClient
	ListTransactions(ctx context.Context, clientID string, limit, offset int) ([]dto.TransactionResponse, error)
}

func toggleGroups(ctx context.Context, out io.Writer, client transactionLister, clientID, groupID string, transactionIDs []string, limit int, opts *options) error {
	rows, err := client.ListTransactions(ctx, clientID, limit, 0)
	if err != nil {
		return err
	}

	toggle := console.NewGroupToggle(client, opts.logger())
	for _, row := range rows {
		toggle.Track(row.ID, row.GroupID)
	}
	toggle.SelectGroup(groupID)

	var failed int
	for _, id := range transactionIDs {
		outcome, err := toggle.ClickRow(ctx, id)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s  error    %v\n", id, err)
			continue
		}
		if outcome.Result != domain.GroupChangeSuccess {
			failed++
		}
		fmt.Fprintf(out, "%s  %-7s  %s  (group: %s)\n", id, outcome.Result, outcome.Message, groupLabel(outcome.GroupID))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d transactions not updated", failed, len(transactionIDs))
	}
	return nil
}

func tokenCmd() *cobra.Command {
	var (
		secret, subject, email, role string
		ttl                          time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed operator token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.Operator{
				ID:    subject,
				Email: email,
				Role:  domain.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", envOr("JWT_SECRET", ""), "Signing secret (env JWT_SECRET)")
	cmd.Flags().StringVar(&subject, "subject", "", "Operator ID")
	cmd.Flags().StringVar(&email, "email", "", "Operator email")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "Operator role: admin, operator or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func parseTerms(base, delta, waiting string) (domain.CommissionTerms, error) {
	var terms domain.CommissionTerms
	for _, f := range []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"base", base, &terms.Base},
		{"delta", delta, &terms.Delta},
		{"waiting", waiting, &terms.WaitingDays},
	} {
		v, err := decimal.NewFromString(f.value)
		if err != nil {
			return domain.CommissionTerms{}, fmt.Errorf("invalid --%s %q: %w", f.name, f.value, err)
		}
		*f.dst = v
	}
	return terms, nil
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := dto.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func printQuote(out io.Writer, q domain.Quote) {
	fmt.Fprintf(out, "Status:       %s\n", q.Status)
	fmt.Fprintf(out, "Terms:        base %s%% + delta %s%% + waiting days %s%%\n", q.Terms.Base, q.Terms.Delta, q.Terms.WaitingDays)
	fmt.Fprintf(out, "Effective:    %s%%\n", q.EffectivePercentage)
	if q.Settlement == nil {
		return
	}
	rounded := q.Settlement.Rounded()
	fmt.Fprintf(out, "Commission:   %s\n", rounded.CommissionAmount.StringFixed(2))
	fmt.Fprintf(out, "Net amount:   %s\n", rounded.NetAmount.StringFixed(2))
	if q.Balance != nil {
		fmt.Fprintf(out, "Allocated:    %s\n", domain.RoundMoney(q.Balance.TotalAllocated).StringFixed(2))
		fmt.Fprintf(out, "Remainder:    %s\n", domain.RoundMoney(q.Balance.Remainder).StringFixed(2))
		if q.Balance.OverAllocated {
			fmt.Fprintln(out, "Warning:      destination items exceed the net amount")
		}
	}
}

func groupLabel(id *string) string {
	if id == nil {
		return "none"
	}
	return *id
}
