// Command excelfinder is the terminal client for the Excel Finder API:
// account management, password recovery, and spreadsheet ingestion.
//
// The session persists between invocations in a JSON file, so login is
// needed once and upload/files commands reuse it.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sakif/excel-finder/internal/apperror"
	"github.com/sakif/excel-finder/internal/client"
	"github.com/sakif/excel-finder/internal/model"
)

var (
	serverURL   string
	sessionPath string
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "excelfinder",
		Short:         "Upload spreadsheets and browse their sheets from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultSession := filepath.Join(configDir(), "session.json")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("EXCELFINDER_SERVER", "http://localhost:5000"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", defaultSession, "Session file path")

	rootCmd.AddCommand(
		registerCmd(),
		loginCmd(),
		logoutCmd(),
		recoverCmd(),
		uploadCmd(),
		filesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apperror.Message(err))
		os.Exit(1)
	}
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".excelfinder")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newController() (*client.AuthFlowController, *client.SessionStore) {
	gateway := client.NewHTTPGateway(serverURL, nil)
	store := client.NewSessionStore(sessionPath)
	return client.NewAuthFlowController(gateway, store), store
}

// currentUser loads the persisted session or fails with a login hint.
func currentUser() (*model.User, error) {
	sess := client.NewSessionStore(sessionPath).Load()
	if !sess.LoggedIn {
		return nil, fmt.Errorf("not logged in, run \"excelfinder login\" first")
	}
	return sess.User, nil
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func registerCmd() *cobra.Command {
	var name, email, password, confirm string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, _ := newController()
			if err := controller.Register(cmd.Context(), name, email, password, confirm); err != nil {
				return err
			}
			fmt.Println("Registration successful. You can now log in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Password confirmation")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("confirm")
	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, _ := newController()
			sess, err := controller.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s <%s>\n", sess.User.Name, sess.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, _ := newController()
			if err := controller.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

// recoverCmd walks the whole forgot-password flow in one invocation:
// request the OTP, verify it, set the new password.
func recoverCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Recover a forgotten password via email OTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			controller, _ := newController()

			if email == "" {
				email = prompt("Email: ")
			}

			challenge, err := controller.StartRecovery(ctx, email)
			if err != nil {
				return err
			}
			if challenge.EmailSent {
				fmt.Println("An OTP was sent to your email address.")
			} else {
				// Degraded mode: the server could not send email.
				fmt.Printf("Email delivery unavailable. Your OTP is: %s\n", challenge.OTP)
			}

			for {
				code := prompt("OTP: ")
				if err := controller.SubmitOTP(ctx, code); err != nil {
					fmt.Println("Error:", apperror.Message(err))
					if again := prompt("Try again? [y/N]: "); !strings.EqualFold(again, "y") {
						return err
					}
					continue
				}
				break
			}

			password := prompt("New password: ")
			if err := controller.ResetPassword(ctx, password); err != nil {
				return err
			}
			fmt.Println("Password reset successful. You can now log in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

// mimeForFile maps a spreadsheet extension to the MIME type the remote
// allow-list expects.
func mimeForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

func uploadCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a spreadsheet and show its sheets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("file not found: %s", path)
			}

			var ownerID string
			var ingester client.Ingester
			if local {
				ingester = &client.LocalIngester{}
			} else {
				user, err := currentUser()
				if err != nil {
					return err
				}
				ownerID = user.ID
				ingester = client.NewRemoteIngester(client.NewHTTPGateway(serverURL, nil))
			}

			view := client.NewSheetViewModel()
			pipeline := client.NewFileIngestionPipeline(ingester, view, func() {
				fmt.Println("Upload complete.")
			})
			pipeline.SelectFile(&model.UploadedFile{
				Name:      filepath.Base(path),
				SizeBytes: info.Size(),
				MIMEType:  mimeForFile(path),
			})

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			wb, err := pipeline.Ingest(cmd.Context(), f, ownerID, func(frac float64) {
				fmt.Printf("\rUploading... %3.0f%%", frac*100)
				if frac >= 1 {
					fmt.Println()
				}
			})
			if err != nil {
				return err
			}

			printWorkbook(wb, view)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Parse the file locally instead of uploading")
	return cmd
}

func printWorkbook(wb *model.Workbook, view *client.SheetViewModel) {
	fmt.Printf("Sheets (%d):\n", len(wb.SheetNames))
	for _, name := range wb.SheetNames {
		sheet := wb.Sheets[name]
		marker := "  "
		if name == view.ActiveSheet() {
			marker = "* "
		}
		fmt.Printf("%s%s: %d rows, %d columns\n", marker, name, sheet.RowCount(), sheet.ColumnCount())
	}
}

func filesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage uploaded files",
	}
	cmd.AddCommand(filesListCmd(), filesDataCmd(), filesDeleteCmd())
	return cmd
}

func filesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your uploaded files",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := currentUser()
			if err != nil {
				return err
			}

			gateway := client.NewHTTPGateway(serverURL, nil)
			files, err := gateway.ListFiles(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("No files uploaded yet.")
				return nil
			}
			for _, f := range files {
				fmt.Printf("%s  %s  (%d bytes, uploaded %s)\n",
					f.ID, f.OriginalFilename, f.SizeBytes, f.UploadedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func filesDataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "data [fileID]",
		Short: "Show the sheets of an uploaded file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway := client.NewHTTPGateway(serverURL, nil)
			wb, err := gateway.FileData(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			view := client.NewSheetViewModel()
			view.SetWorkbook(wb)
			printWorkbook(wb, view)
			return nil
		},
	}
}

func filesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [fileID]",
		Short: "Delete an uploaded file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway := client.NewHTTPGateway(serverURL, nil)
			if err := gateway.DeleteFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("File deleted.")
			return nil
		},
	}
}
