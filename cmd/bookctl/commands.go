package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/party-bookings/internal/bookingform"
	"github.com/robertarktes/party-bookings/internal/client"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/observability"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	apiURL   string
	token    string
	phone    string
	logLevel string
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.apiURL, client.WithAdminToken(o.token))
}

func (o *rootOptions) logger() observability.Logger {
	if o.logLevel == "" {
		return observability.NewNopLogger()
	}
	return observability.NewLogger(o.logLevel)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "bookctl",
		Short:        "Book party slots and manage bookings through the booking API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("API_URL", "http://localhost:8080"), "booking API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("ADMIN_TOKEN"), "admin bearer token")
	root.PersistentFlags().StringVar(&opts.phone, "phone", envOr("WHATSAPP_NUMBER", "5491122334455"), "WhatsApp number for confirmations")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log to stderr at this level")

	root.AddCommand(
		newSlotsCmd(opts),
		newAvailabilityCmd(opts),
		newBookCmd(opts),
		newAdminCmd(opts),
		newContentCmd(opts),
	)
	return root
}

func newSlotsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "List the bookable time slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slots, err := opts.client().Slots(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range slots {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func newAvailabilityCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show free and occupied slots of a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.client().OccupiedSlots(cmd.Context(), date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", domain.FormatDate(a.Date))
			for _, s := range a.Free {
				fmt.Fprintf(out, "  libre    %s\n", s)
			}
			for _, s := range a.Occupied {
				fmt.Fprintf(out, "  ocupado  %s\n", s)
			}
			if a.Degraded {
				fmt.Fprintln(out, "  (availability could not be checked)")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "event date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newBookCmd(opts *rootOptions) *cobra.Command {
	var (
		date, slot, comments string
		kids, adults         int
	)
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Request a booking and print its WhatsApp confirmation link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			form := bookingform.New(c, c, bookingform.Options{Phone: opts.phone}, opts.logger())
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if date != "" {
				if err := form.SetDate(ctx, date); err != nil {
					return err
				}
			} else if err := form.Refresh(ctx); err != nil {
				return err
			}
			form.SetKids(kids)
			form.SetAdults(adults)
			form.SetComments(comments)

			if slot != "" {
				if err := form.SelectTime(slot); err != nil {
					if errors.Is(err, bookingform.ErrSlotOccupied) || errors.Is(err, bookingform.ErrUnknownSlot) {
						fmt.Fprintf(out, "free slots on %s: %s\n", form.Draft().Date, strings.Join(form.Free(), ", "))
					}
					return err
				}
			}

			b, err := form.Submit(ctx)
			if err != nil {
				if msg := form.Message(); msg != "" {
					fmt.Fprintln(out, msg)
				}
				return err
			}
			fmt.Fprintf(out, "booking %s %s\n", b.ID, b.Status.Label())
			fmt.Fprintf(out, "%s, %s\n", domain.FormatDate(b.Date), b.Time)
			fmt.Fprintf(out, "confirm via WhatsApp: %s\n", form.WhatsAppLink())
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "event date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&slot, "time", "", "time slot, e.g. \"14:00 - 17:00\"")
	cmd.Flags().IntVar(&kids, "kids", bookingform.DefaultGuests, "number of kids")
	cmd.Flags().IntVar(&adults, "adults", bookingform.DefaultGuests, "number of adults")
	cmd.Flags().StringVar(&comments, "comments", "", "optional comments")
	return cmd
}

func newAdminCmd(opts *rootOptions) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage bookings (needs --token)",
	}

	var status, query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List bookings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bookings, degraded, err := opts.client().ListBookings(cmd.Context(), status, query)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFECHA\tHORARIO\tNIÑOS\tADULTOS\tESTADO\tCOMENTARIOS")
			for _, b := range bookings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n", b.ID, b.Date, b.Time, b.KidsCount, b.AdultsCount, b.StatusLabel, b.Comments)
			}
			if degraded {
				fmt.Fprintln(w, "(bookings could not be fetched)")
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", "all", "all, pending, confirmed or cancelled")
	list.Flags().StringVar(&query, "q", "", "search date or comments")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return errors.Wrap(err, "booking id")
			}
			b, err := opts.client().GetBooking(cmd.Context(), id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(b)
		},
	}

	setStatus := &cobra.Command{
		Use:   "status <id> <pending|confirmed|cancelled>",
		Short: "Change the status of a booking",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return errors.Wrap(err, "booking id")
			}
			st, err := domain.ParseStatus(args[1])
			if err != nil {
				return err
			}
			if err := opts.client().ChangeStatus(cmd.Context(), id, st); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", id, st.Label())
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return errors.Wrap(err, "booking id")
			}
			if err := opts.client().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}

	admin.AddCommand(list, get, setStatus, del)
	return admin
}

func newContentCmd(opts *rootOptions) *cobra.Command {
	content := &cobra.Command{
		Use:   "content",
		Short: "Read and edit site content blocks",
	}

	get := &cobra.Command{
		Use:   "get [key]",
		Short: "Print one content block, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			var v interface{}
			if len(args) == 1 {
				raw, err := c.GetContent(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				v = raw
			} else {
				all, err := c.Content(cmd.Context())
				if err != nil {
					return err
				}
				v = all
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}

	put := &cobra.Command{
		Use:   "put <key> <json | @file | ->",
		Short: "Replace a content block (needs --token)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readValue(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			c, err := opts.client().PutContent(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s at %s\n", c.Key, c.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	content.AddCommand(get, put)
	return content
}

func readValue(stdin io.Reader, arg string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case arg == "-":
		data, err = io.ReadAll(stdin)
	case strings.HasPrefix(arg, "@"):
		data, err = os.ReadFile(strings.TrimPrefix(arg, "@"))
	default:
		data = []byte(arg)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read value")
	}
	if !json.Valid(data) {
		return nil, errors.New("value is not valid JSON")
	}
	return data, nil
}
