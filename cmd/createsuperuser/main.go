// Command createsuperuser creates an admin identity with staff and
// superuser flags. The password is always read from the terminal.
//
//	createsuperuser -email root@example.com -full-name "Site Admin" [server flags]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/otpauth/internal/flagx"
	"github.com/dmitrijs2005/otpauth/internal/prompt"
	"github.com/dmitrijs2005/otpauth/internal/server"
	"github.com/dmitrijs2005/otpauth/internal/server/config"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
)

type superuserApp interface {
	CreateSuperuser(ctx context.Context, email, fullName, password string) (*models.User, error)
	Close()
}

type env struct {
	in           io.Reader
	out          io.Writer
	readPassword func(w io.Writer) (string, error)
	newApp       func(ctx context.Context) (superuserApp, error)
}

func main() {

	e := env{
		in:           os.Stdin,
		out:          os.Stdout,
		readPassword: prompt.NewPassword,
		newApp: func(ctx context.Context) (superuserApp, error) {
			return server.NewApp(ctx, config.LoadConfig())
		},
	}

	if err := run(context.Background(), os.Args[1:], e); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, args []string, e env) error {
	var email, fullName string

	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	fs.StringVar(&email, "email", "", "superuser email")
	fs.StringVar(&fullName, "full-name", "", "superuser full name")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "-full-name"})); err != nil {
		return err
	}

	if email == "" {
		var err error
		if email, err = prompt.Text(bufio.NewReader(e.in), "Email", e.out); err != nil {
			return fmt.Errorf("read email: %w", err)
		}
	}

	password, err := e.readPassword(e.out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	app, err := e.newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	user, err := app.CreateSuperuser(ctx, email, fullName, password)
	if err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}

	fmt.Fprintf(e.out, "Superuser %s created (id %s)\n", user.Email, user.ID)
	return nil
}
