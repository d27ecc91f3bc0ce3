package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"car-rental/internal/logger"
	"car-rental/rental"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// app carries the resolved configuration and the open manager between the
// cobra hooks and the commands.
type app struct {
	cfg     rental.Config
	verbose bool

	userID   string
	userName string

	log *zap.Logger
	mgr *rental.RentalManager
	in  *bufio.Scanner
	out io.Writer
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	def := rental.DefaultConfig()
	a := &app{out: os.Stdout}

	root := &cobra.Command{
		Use:          "rental",
		Short:        "Luxury car rental records: fleet, members, bookings and returns",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMenu()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.DataDir, "data-dir", rental.EnvOr("RENTAL_DATA_DIR", def.DataDir), "directory holding the tables")
	pf.StringVar(&a.cfg.Backend, "backend", rental.EnvOr("RENTAL_BACKEND", def.Backend), "table backend: csv or sqlite")
	pf.StringVar(&a.cfg.DBFile, "db", rental.EnvOr("RENTAL_DB", def.DBFile), "SQLite file name inside the data dir")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log every table write")
	pf.StringVar(&a.userID, "user-id", rental.EnvOr("RENTAL_USER_ID", ""), "operator id for non-interactive commands")
	pf.StringVar(&a.userName, "user-name", rental.EnvOr("RENTAL_USER_NAME", ""), "operator name for non-interactive commands")

	root.AddCommand(
		newInitUserCmd(a),
		newBookCmd(a),
		newReturnCmd(a),
		newListCmd(a),
		newReportCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	if a.verbose {
		a.log = logger.New(true)
	} else {
		a.log = logger.Quiet()
	}
	a.in = bufio.NewScanner(cmd.InOrStdin())
	a.out = cmd.OutOrStdout()

	mgr, err := rental.NewRentalManager(a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("open tables: %w", err)
	}
	a.mgr = mgr
	return nil
}

func (a *app) close() error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.mgr == nil {
		return nil
	}
	return a.mgr.Close()
}

// readPassword reads a password with masking when stdin is a terminal and
// falls back to a plain line otherwise.
func (a *app) readPassword(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", err
		}
		fmt.Fprintln(a.out) // Add newline after password input
		return strings.TrimSpace(string(bytePassword)), nil
	}
	if !a.in.Scan() {
		return "", io.EOF
	}
	return strings.TrimSpace(a.in.Text()), nil
}

// prompt prints label and returns the trimmed answer.
func (a *app) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

// login runs the credential gate. Flags or environment supply id and name
// when set; the password comes from RENTAL_PASSWORD or a masked prompt.
func (a *app) login() error {
	id, name := a.userID, a.userName
	var ok bool
	if id == "" {
		if id, ok = a.prompt("Enter User ID: "); !ok {
			return io.EOF
		}
	}
	if name == "" {
		if name, ok = a.prompt("Enter User Name: "); !ok {
			return io.EOF
		}
	}
	password := os.Getenv("RENTAL_PASSWORD")
	if password == "" {
		var err error
		if password, err = a.readPassword("Enter Password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	user, err := a.mgr.Login(id, name, password)
	if err != nil {
		a.log.Warn("login rejected", zap.String("user_id", id))
		return err
	}
	a.log.Debug("login accepted", zap.String("user_id", user.ID))
	return nil
}

func newInitUserCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-user",
		Short: "Create the first operator account (only while the Users table is empty)",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.mgr.Users().All()
			if err != nil {
				return err
			}
			if len(users) > 0 {
				return errors.New("operators already exist; log in and use menu option 1")
			}
			id, _ := a.prompt("Enter User ID: ")
			name, _ := a.prompt("Enter User Name: ")
			pw, err := a.readPassword("Enter Password: ")
			if err != nil {
				return err
			}
			if err := a.mgr.AddUser(id, name, pw); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "User added successfully")
			return nil
		},
	}
}

func newBookCmd(a *app) *cobra.Command {
	var req rental.BookingRequest
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a car for a member and print the bill",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.login(); err != nil {
				return err
			}
			bill, err := a.mgr.BookCar(req)
			if err != nil {
				return err
			}
			bill.Render(a.out)
			fmt.Fprintln(a.out, "Car booked successfully")
			return nil
		},
	}
	cmd.Flags().StringVar(&req.CarName, "car", "", "car name")
	cmd.Flags().StringVar(&req.MemberName, "member", "", "member name")
	cmd.Flags().StringVar(&req.BookingDate, "date", "", "date of booking, e.g. 2025-11-19")
	cmd.Flags().Int64Var(&req.Days, "days", 0, "number of days booked")
	_ = cmd.MarkFlagRequired("car")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("days")
	return cmd
}

func newReturnCmd(a *app) *cobra.Command {
	var (
		req rental.ReturnRequest
		yes bool
	)
	cmd := &cobra.Command{
		Use:   "return",
		Short: "Close every active booking of a car/member pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.login(); err != nil {
				return err
			}
			confirm := rental.Confirmer(a.confirmReturn)
			if yes {
				confirm = rental.AlwaysConfirm
			}
			closure, err := a.mgr.ReturnCar(req, confirm)
			if errors.Is(err, rental.ErrAborted) {
				fmt.Fprintln(a.out, "Return operation cancelled")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Car returned successfully; %d booking(s) moved to %s\n",
				len(closure.Returned), rental.ReturnedBookingsSchema.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.CarName, "car", "", "car name")
	cmd.Flags().StringVar(&req.MemberName, "member", "", "member name")
	cmd.Flags().StringVar(&req.ReturnDate, "date", "", "return date, e.g. 2025-11-20")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("car")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	tables := map[string]rental.Schema{
		"users":    rental.UsersSchema,
		"members":  rental.MembersSchema,
		"cars":     rental.CarsSchema,
		"bookings": rental.ActiveBookingsSchema,
		"returned": rental.ReturnedBookingsSchema,
	}
	return &cobra.Command{
		Use:       "list {users|members|cars|bookings|returned}",
		Short:     "Print a whole table",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"users", "members", "cars", "bookings", "returned"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.login(); err != nil {
				return err
			}
			t, err := a.mgr.Table(tables[args[0]])
			if err != nil {
				return err
			}
			if args[0] == "users" {
				t = maskPasswords(t)
			}
			printTable(a.out, t)
			return nil
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "report {rates|bookings}",
		Short:     "Chart car rates or active bookings per member",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"rates", "bookings"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.login(); err != nil {
				return err
			}
			if args[0] == "rates" {
				return a.chartRates()
			}
			return a.chartBookings()
		},
	}
}
