package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path, contentType string, body []byte) (int, []byte, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, u, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("AUTHBRIDGE_URL", "http://localhost:8000")
		token   = envOr("AUTHBRIDGE_TOKEN", "")
		out     = envOr("AUTHBRIDGE_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "authbridge",
		Short: "CLI para el backend de autenticación (signup, token, me, reset)",
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del backend (env AUTHBRIDGE_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "Access token para endpoints protegidos (env AUTHBRIDGE_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	httpClient := &http.Client{Timeout: timeout}
	cl := &client{HTTP: httpClient}
	// Los flags se resuelven recién en Execute, así que el client se completa acá.
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cl.BaseURL = baseURL
		cl.Token = token
		cl.OutFormat = out
	}

	// signup: alta de usuario local
	var suUsername, suPassword string
	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Crear un usuario con username y password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if suUsername == "" || suPassword == "" {
				return fmt.Errorf("--username y --password son requeridos")
			}
			payload := map[string]string{
				"username": suUsername,
				"password": suPassword,
			}
			b, _ := json.Marshal(payload)
			status, body, err := cl.do("POST", "/api/auth/", "application/json", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("signup fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	signupCmd.Flags().StringVar(&suUsername, "username", "", "Username del nuevo usuario")
	signupCmd.Flags().StringVar(&suPassword, "password", "", "Password del nuevo usuario")

	// token: login con password, imprime el access token
	var tkUsername, tkPassword string
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Obtener un access token con username y password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tkUsername == "" || tkPassword == "" {
				return fmt.Errorf("--username y --password son requeridos")
			}
			form := url.Values{}
			form.Set("username", tkUsername)
			form.Set("password", tkPassword)
			status, body, err := cl.do("POST", "/api/auth/token", "application/x-www-form-urlencoded", []byte(form.Encode()))
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("token fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				// Solo el token, para poder hacer export AUTHBRIDGE_TOKEN=$(authbridge token ...)
				var tr struct {
					AccessToken string `json:"access_token"`
				}
				if json.Unmarshal(body, &tr) == nil && tr.AccessToken != "" {
					fmt.Println(tr.AccessToken)
					return nil
				}
			}
			cl.print(status, body)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&tkUsername, "username", "", "Username")
	tokenCmd.Flags().StringVar(&tkPassword, "password", "", "Password")

	// me: perfil del usuario autenticado
	meCmd := &cobra.Command{
		Use:   "me",
		Short: "Mostrar el perfil del usuario autenticado",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cl.Token == "" {
				return fmt.Errorf("falta el token (flag --token o env AUTHBRIDGE_TOKEN)")
			}
			status, body, err := cl.do("GET", "/api/auth/users/me", "", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("me fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	// reset request / reset confirm
	var rrEmail string
	resetRequestCmd := &cobra.Command{
		Use:   "request",
		Short: "Pedir un mail de reset de password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rrEmail == "" {
				return fmt.Errorf("--email es requerido")
			}
			b, _ := json.Marshal(map[string]string{"email": rrEmail})
			status, body, err := cl.do("POST", "/api/auth/password-reset/request", "application/json", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("reset request fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	resetRequestCmd.Flags().StringVar(&rrEmail, "email", "", "Email de la cuenta")

	var rcToken, rcPassword string
	resetConfirmCmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirmar un reset con el token del mail",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rcToken == "" || rcPassword == "" {
				return fmt.Errorf("--reset-token y --new-password son requeridos")
			}
			b, _ := json.Marshal(map[string]string{
				"token":        rcToken,
				"new_password": rcPassword,
			})
			status, body, err := cl.do("POST", "/api/auth/password-reset/confirm", "application/json", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("reset confirm fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, []byte(`{"ok":true}`))
			return nil
		},
	}
	resetConfirmCmd.Flags().StringVar(&rcToken, "reset-token", "", "Token recibido por mail")
	resetConfirmCmd.Flags().StringVar(&rcPassword, "new-password", "", "Nueva password")

	resetCmd := &cobra.Command{Use: "reset", Short: "Flujo de reset de password"}
	resetCmd.AddCommand(resetRequestCmd)
	resetCmd.AddCommand(resetConfirmCmd)

	// health: readiness del backend
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Consultar el readiness del backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/readyz", "", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("backend no disponible: status=%d", status)
			}
			return nil
		},
	}

	root.AddCommand(signupCmd)
	root.AddCommand(tokenCmd)
	root.AddCommand(meCmd)
	root.AddCommand(resetCmd)
	root.AddCommand(healthCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
