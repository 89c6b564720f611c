// Command ewaste-console is a terminal front end for the pickup service. It
// renders the same role dashboards the web UI does: request lists with
// progress and per-status controls for users, the approval queue for admins,
// and the OTP-verified handover flow for pickup personnel.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ewaste/internal/client"
	"ewaste/internal/lifecycle"
	"ewaste/internal/models"
	"ewaste/internal/otp"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	baseURL := os.Getenv("EWASTE_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	c, err := client.New(client.Options{
		BaseURL: baseURL,
		Session: client.NewSession(client.DefaultSessionPath()),
	})
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "login":
		runLogin(ctx, c, os.Args[2:])
	case "logout":
		if err := c.Logout(); err != nil {
			fatal(err)
		}
		fmt.Println("logged out")
	case "register":
		runRegister(ctx, c, os.Args[2:])
	case "requests":
		runRequests(ctx, c, os.Args[2:])
	case "create":
		runCreate(ctx, c, os.Args[2:])
	case "approve":
		runApprove(ctx, c, os.Args[2:])
	case "reject":
		runReject(ctx, c, os.Args[2:])
	case "schedule":
		runSchedule(ctx, c, os.Args[2:])
	case "verify":
		runVerify(ctx, c, os.Args[2:])
	case "summary":
		runSummary(ctx, c)
	case "tickets":
		runTickets(ctx, c, os.Args[2:])
	case "report":
		runReport(ctx, c, os.Args[2:])
	case "certificate":
		runCertificate(ctx, c)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: ewaste-console <command> [flags]

commands:
  login        -email -password
  logout
  register     -name -email -password
  requests     [-status ALL] [-search term]   role-aware request list
  create       -device -brand [-model] -quantity -condition -address [-remarks]
  approve      -id
  reject       -id -reason
  schedule     -id -date RFC3339 -person
  verify       -id                            initiate and complete OTP handover
  summary                                     admin dashboard summary
  tickets      [-create -subject -message]
  report       -id [-out file.pdf]
  certificate`)
}

func fatal(err error) {
	if errors.Is(err, client.ErrUnauthorized) {
		fmt.Fprintln(os.Stderr, "error: not logged in or session expired, run login first")
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

func runLogin(ctx context.Context, c *client.Client, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	user, err := c.Login(ctx, *email, *password)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("logged in as %s (%s)\n", user.Name, user.Role)
}

func runRegister(ctx context.Context, c *client.Client, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	phone := fs.String("phone", "", "phone number")
	address := fs.String("address", "", "address")
	_ = fs.Parse(args)

	user, err := c.Register(ctx, client.RegisterInput{
		Name:        *name,
		Email:       *email,
		Password:    *password,
		PhoneNumber: *phone,
		Address:     *address,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("registered %s, logged in\n", user.Email)
}

// runRequests lists requests for whichever role is logged in, applying the
// shared status/search filter and showing the controls that role may use.
func runRequests(ctx context.Context, c *client.Client, args []string) {
	fs := flag.NewFlagSet("requests", flag.ExitOnError)
	status := fs.String("status", lifecycle.StatusAll, "status filter")
	search := fs.String("search", "", "search term")
	_ = fs.Parse(args)

	user, ok := c.User()
	if !ok {
		fatal(client.ErrUnauthorized)
	}

	var requests []models.Request
	var err error
	switch user.Role {
	case models.RoleAdmin:
		requests, err = c.ListRequests(ctx)
	case models.RolePickupPerson:
		requests, err = c.AssignedRequests(ctx)
	default:
		requests, err = c.MyRequests(ctx)
	}
	if err != nil {
		fatal(err)
	}

	requests = lifecycle.FilterRequests(requests, strings.ToUpper(*status), *search)
	if len(requests) == 0 {
		fmt.Println("no requests")
		return
	}
	for _, r := range requests {
		printRequest(r, user.Role)
	}
}

func printRequest(r models.Request, role string) {
	step := lifecycle.ProgressStep(r.Status)
	bar := strings.Repeat("#", step) + strings.Repeat("-", 5-step)
	if r.Status == models.StatusRejected {
		bar = "xxxxx"
	}
	fmt.Printf("%s  [%s] %-10s  %s %s x%d\n", r.RequestID, bar, r.Status, r.Brand, r.DeviceType, r.Quantity)
	if r.Status == models.StatusRejected && r.RejectionReason != "" {
		fmt.Printf("      reason: %s\n", r.RejectionReason)
	}
	if r.ScheduledPickupDate != nil {
		fmt.Printf("      pickup: %s (%s)\n", r.ScheduledPickupDate.Format("2006-01-02 15:04"), r.PickupPersonName)
	}
	if actions := lifecycle.AllowedActions(r.Status, role); len(actions) > 0 {
		labels := make([]string, len(actions))
		for i, a := range actions {
			labels[i] = string(a)
		}
		fmt.Printf("      actions: %s\n", strings.Join(labels, ", "))
	}
}

func runCreate(ctx context.Context, c *client.Client, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	device := fs.String("device", "", "device type")
	brand := fs.String("brand", "", "brand")
	model := fs.String("model", "", "model")
	quantity := fs.Int("quantity", 1, "quantity")
	condition := fs.String("condition", "", "device condition")
	address := fs.String("address", "", "pickup address")
	remarks := fs.String("remarks", "", "remarks")
	images := fs.String("images", "", "comma-separated image files")
	_ = fs.Parse(args)

	input := client.CreateRequestInput{
		DeviceType:    *device,
		Brand:         *brand,
		Model:         *model,
		Quantity:      *quantity,
		Condition:     *condition,
		PickupAddress: *address,
		Remarks:       *remarks,
	}
	for _, file := range strings.Split(*images, ",") {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			fatal(err)
		}
		input.Images = append(input.Images, client.Image{
			Filename:    file,
			ContentType: "application/octet-stream",
			Data:        data,
		})
	}

	request, err := c.CreateRequest(ctx, input)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("created request %s (%s)\n", request.RequestID, request.Status)
}

func runApprove(ctx context.Context, c *client.Client, args []string) {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	id := fs.String("id", "", "request id")
	_ = fs.Parse(args)

	request, err := c.Approve(ctx, *id)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("request %s is now %s\n", request.RequestID, request.Status)
}

func runReject(ctx context.Context, c *client.Client, args []string) {
	fs := flag.NewFlagSet("reject", flag.ExitOnError)
	id := fs.String("id", "", "request id")
	reason := fs.String("reason", "", "rejection reason")
	_ = fs.Parse(args)

	request, err := c.Reject(ctx, *id, *reason)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("request %s is now %s\n", request.RequestID, request.Status)
}

func runSchedule(ctx context.Context, c *client.Client, args []string) {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	id := fs.String("id", "", "request id")
	date := fs.String("date", "", "pickup date, RFC3339")
	person := fs.String("person", "", "pickup person id")
	_ = fs.Parse(args)

	pickupDate, err := time.Parse(time.RFC3339, *date)
	if err != nil {
		fatal(fmt.Errorf("parse date: %w", err))
	}
	request, err := c.Schedule(ctx, *id, pickupDate, *person)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("request %s scheduled for %s\n", request.RequestID, pickupDate.Format("2006-01-02 15:04"))
}

// runVerify walks the pickup person through the handover: request the code,
// then read attempts from stdin until the flow completes or locks out.
func runVerify(ctx context.Context, c *client.Client, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	id := fs.String("id", "", "request id")
	_ = fs.Parse(args)

	flow := otp.NewFlow()
	err := flow.Initiate(ctx, func(ctx context.Context) error {
		_, err := c.InitiateVerification(ctx, *id)
		return err
	})
	if err != nil {
		fatal(err)
	}
	fmt.Println("verification code sent to the customer")

	scanner := bufio.NewScanner(os.Stdin)
	for flow.State() != otp.StateCompleted {
		fmt.Print("enter code: ")
		if !scanner.Scan() {
			fatal(errors.New("input closed"))
		}
		err := flow.Submit(ctx, scanner.Text(), func(ctx context.Context, code string) error {
			_, err := c.VerifyComplete(ctx, *id, code)
			return err
		})
		switch {
		case err == nil:
		case errors.Is(err, otp.ErrBadCode):
			fmt.Println("code must be 6 digits")
		default:
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.Code == "otp_locked" {
				fatal(errors.New("too many failed attempts, re-run verify to request a new code"))
			}
			fmt.Printf("verification failed: %v\n", err)
		}
	}
	fmt.Println("pickup confirmed, request completed")
}

func runSummary(ctx context.Context, c *client.Client) {
	summary, err := c.DashboardSummary(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("users: %d  pickup persons: %d  requests: %d\n",
		summary.TotalUsers, summary.TotalPickupPersons, summary.TotalRequests)
	for status, count := range summary.StatusStats {
		fmt.Printf("  %-12s %d\n", status, count)
	}
	for device, count := range summary.DeviceStats {
		fmt.Printf("  %-12s %d\n", device, count)
	}
}

func runTickets(ctx context.Context, c *client.Client, args []string) {
	fs := flag.NewFlagSet("tickets", flag.ExitOnError)
	create := fs.Bool("create", false, "create a ticket")
	subject := fs.String("subject", "", "ticket subject")
	message := fs.String("message", "", "ticket message")
	category := fs.String("category", "", "ticket category")
	_ = fs.Parse(args)

	if *create {
		ticket, err := c.CreateTicket(ctx, client.CreateTicketInput{
			Subject:  *subject,
			Message:  *message,
			Category: *category,
		})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("created ticket %s\n", ticket.TicketID)
		return
	}

	user, ok := c.User()
	if !ok {
		fatal(client.ErrUnauthorized)
	}
	var tickets []models.SupportTicket
	var err error
	if user.Role == models.RoleAdmin {
		tickets, err = c.AllTickets(ctx)
	} else {
		tickets, err = c.MyTickets(ctx)
	}
	if err != nil {
		fatal(err)
	}
	for _, t := range tickets {
		fmt.Printf("%s  [%s] %s\n", t.TicketID, t.Status, t.Subject)
		if t.AdminReply != "" {
			fmt.Printf("      reply: %s\n", t.AdminReply)
		}
	}
}

func runReport(ctx context.Context, c *client.Client, args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	id := fs.String("id", "", "request id")
	out := fs.String("out", "", "output file")
	_ = fs.Parse(args)

	pdf, err := c.DownloadReport(ctx, *id)
	if err != nil {
		fatal(err)
	}
	path := *out
	if path == "" {
		path = "recycling-report-" + *id + ".pdf"
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %s\n", path)
}

func runCertificate(ctx context.Context, c *client.Client) {
	pdf, err := c.DownloadCertificate(ctx)
	if err != nil {
		fatal(err)
	}
	if err := os.WriteFile("certificate.pdf", pdf, 0o644); err != nil {
		fatal(err)
	}
	fmt.Println("wrote certificate.pdf")
}
