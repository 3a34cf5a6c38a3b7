package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/rates"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/service"
	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/storage/jsonfile"
)

// readPassword тестовый шов для term.ReadPassword.
var readPassword = term.ReadPassword

// CLI интерактивный цикл команд. Ошибки печатаются пользователю, цикл
// продолжается; завершение только по exit или EOF.
type CLI struct {
	auth         service.Auth
	wallet       service.Wallet
	updater      *rates.Updater
	registry     *rates.Registry
	ratesStorage jsonfile.RatesStorage
	baseCurrency string
	log          *slog.Logger

	in  *bufio.Reader
	out io.Writer
}

func New(
	auth service.Auth,
	wallet service.Wallet,
	updater *rates.Updater,
	registry *rates.Registry,
	ratesStorage jsonfile.RatesStorage,
	baseCurrency string,
	log *slog.Logger,
) *CLI {
	return &CLI{
		auth:         auth,
		wallet:       wallet,
		updater:      updater,
		registry:     registry,
		ratesStorage: ratesStorage,
		baseCurrency: baseCurrency,
		log:          log,
		in:           bufio.NewReader(os.Stdin),
		out:          os.Stdout,
	}
}

// Run крутит REPL до exit, EOF или отмены контекста.
func (c *CLI) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Добро пожаловать в Valutatrade Hub")
	c.printHelp("")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Fprint(c.out, "> ")
		line, err := c.in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				return nil
			}
			return err
		}

		command, params, err := parseCommand(line)
		if err != nil {
			c.printError(err)
			continue
		}
		if command == "" {
			continue
		}
		if command == "exit" {
			fmt.Fprintln(c.out, "До встречи!")
			return nil
		}

		if err := c.dispatch(ctx, command, params); err != nil {
			c.printError(err)
		}
	}
}

func (c *CLI) dispatch(ctx context.Context, command string, params map[string]string) error {
	switch command {
	case "register":
		return c.cmdRegister(params)
	case "login":
		return c.cmdLogin(params)
	case "logout":
		return c.cmdLogout()
	case "whoami":
		return c.cmdWhoami()
	case "change-password":
		return c.cmdChangePassword(params)
	case "buy":
		return c.cmdBuy(params)
	case "sell":
		return c.cmdSell(params)
	case "deposit":
		return c.cmdDeposit(params)
	case "show-portfolio":
		return c.cmdShowPortfolio(params)
	case "get-rate":
		return c.cmdGetRate(params)
	case "update-rates":
		return c.cmdUpdateRates(ctx, params)
	case "show-rates":
		return c.cmdShowRates()
	case "help":
		c.printHelp(params["command"])
		return nil
	default:
		fmt.Fprintf(c.out, "Неизвестная команда %q, введите help\n", command)
		return nil
	}
}

func (c *CLI) cmdRegister(params map[string]string) error {
	if err := requireParams(params, "username"); err != nil {
		return err
	}
	password, err := c.obtainPassword(params)
	if err != nil {
		return err
	}

	result, err := c.auth.Register(params["username"], password)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Пользователь %q зарегистрирован (id=%d).\n", result.Username, result.UserID)
	fmt.Fprintf(c.out, "В подарок за регистрацию вы получаете стартовый баланс %.2f %s.\n",
		result.StartingBalance, result.BaseCurrency)
	fmt.Fprintf(c.out, "Войдите: login --username %s --password %s\n",
		result.Username, strings.Repeat("*", len(password)))
	return nil
}

func (c *CLI) cmdLogin(params map[string]string) error {
	if err := requireParams(params, "username"); err != nil {
		return err
	}
	password, err := c.obtainPassword(params)
	if err != nil {
		return err
	}

	sess, err := c.auth.Login(params["username"], password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Вы вошли как %q\n", sess.Username)
	return nil
}

func (c *CLI) cmdLogout() error {
	if err := c.auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Сессия завершена")
	return nil
}

func (c *CLI) cmdWhoami() error {
	sess, err := c.auth.Current()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Текущий пользователь: %s (id=%d)\n", sess.Username, sess.UserID)
	return nil
}

func (c *CLI) cmdChangePassword(params map[string]string) error {
	if err := requireParams(params, "old", "new"); err != nil {
		return err
	}
	if err := c.auth.ChangePassword(params["old"], params["new"]); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Пароль изменен")
	return nil
}

func (c *CLI) cmdBuy(params map[string]string) error {
	if err := requireParams(params, "currency", "amount"); err != nil {
		return err
	}
	amount, err := parseAmount(params)
	if err != nil {
		return err
	}

	result, err := c.wallet.Buy(params["currency"], amount)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Покупка выполнена: %.4f %s по курсу %.2f %s/%s\n",
		result.Amount, result.Currency, result.Rate, c.baseCurrency, result.Currency)
	fmt.Fprintln(c.out, "Изменения в портфеле:")
	fmt.Fprintf(c.out, "- %s: было %.4f → стало %.4f\n", result.Currency, result.Before, result.After)
	fmt.Fprintf(c.out, "- %s: было %.2f → стало %.2f\n", c.baseCurrency, result.BaseBefore, result.BaseAfter)
	fmt.Fprintf(c.out, "Оценочная стоимость покупки: %.2f %s\n", result.Cost, c.baseCurrency)
	return nil
}

func (c *CLI) cmdSell(params map[string]string) error {
	if err := requireParams(params, "currency", "amount"); err != nil {
		return err
	}
	amount, err := parseAmount(params)
	if err != nil {
		return err
	}

	result, err := c.wallet.Sell(params["currency"], amount)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Продажа выполнена: %.4f %s по курсу %.2f %s/%s\n",
		result.Amount, result.Currency, result.Rate, c.baseCurrency, result.Currency)
	fmt.Fprintln(c.out, "Изменения в портфеле:")
	fmt.Fprintf(c.out, "- %s: было %.4f → стало %.4f\n", result.Currency, result.Before, result.After)
	fmt.Fprintf(c.out, "- %s: было %.2f → стало %.2f\n", c.baseCurrency, result.BaseBefore, result.BaseAfter)
	fmt.Fprintf(c.out, "Оценочная выручка: %.2f %s\n", result.Cost, c.baseCurrency)
	return nil
}

func (c *CLI) cmdDeposit(params map[string]string) error {
	if err := requireParams(params, "amount"); err != nil {
		return err
	}
	amount, err := parseAmount(params)
	if err != nil {
		return err
	}

	result, err := c.wallet.Deposit(amount)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Баланс пополнен на %.2f %s\n", result.Amount, result.Currency)
	fmt.Fprintf(c.out, "Было: %.2f %s\n", result.Before, result.Currency)
	fmt.Fprintf(c.out, "Стало: %.2f %s\n", result.After, result.Currency)
	return nil
}

func (c *CLI) cmdShowPortfolio(params map[string]string) error {
	base := params["base"]
	if base == "" {
		base = c.baseCurrency
	}

	view, err := c.wallet.ShowPortfolio(base)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Портфель (база: %s):\n", view.Base)
	for _, item := range view.Items {
		fmt.Fprintf(c.out, "- %s: %.4f → %.2f %s\n", item.Currency, item.Balance, item.Converted, view.Base)
	}
	fmt.Fprintln(c.out, strings.Repeat("-", 30))
	fmt.Fprintf(c.out, "ИТОГО: %.2f %s\n", view.Total, view.Base)
	return nil
}

func (c *CLI) cmdGetRate(params map[string]string) error {
	if err := requireParams(params, "from", "to"); err != nil {
		return err
	}
	from, to := params["from"], params["to"]

	pair, err := c.wallet.GetRate(from, to)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Курс %s→%s: %.8f (обновлено: %s)\n",
		from, to, pair.Rate, pair.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(c.out, "Обратный курс %s→%s: %.8f\n", to, from, pair.ReverseRate)
	return nil
}

func (c *CLI) cmdUpdateRates(ctx context.Context, params map[string]string) error {
	sources := c.registry.All()
	if name := params["source"]; name != "" {
		src, err := c.registry.Get(name)
		if err != nil {
			return err
		}
		sources = []rates.RateSource{src}
	}

	if err := c.updater.RunUpdateFrom(ctx, "cli", sources); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Обновление курсов завершено, см. show-rates")
	return nil
}

func (c *CLI) cmdShowRates() error {
	snapshot, err := c.ratesStorage.Load()
	if err != nil {
		return err
	}

	if len(snapshot.Pairs) == 0 {
		fmt.Fprintln(c.out, "Курсы еще не загружены, выполните update-rates")
		return nil
	}

	keys := make([]string, 0, len(snapshot.Pairs))
	for key := range snapshot.Pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintln(c.out, "Текущие курсы:")
	for _, key := range keys {
		entry := snapshot.Pairs[key]
		fmt.Fprintf(c.out, "- %-10s %.8f  [%s, %s]\n",
			key, entry.Rate, entry.Source, entry.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	if snapshot.LastRefresh != nil {
		fmt.Fprintf(c.out, "Последнее обновление: %s\n",
			snapshot.LastRefresh.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// obtainPassword берет пароль из --password или запрашивает без эха.
func (c *CLI) obtainPassword(params map[string]string) (string, error) {
	if pw := params["password"]; pw != "" {
		return pw, nil
	}
	fmt.Fprint(c.out, "Пароль: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(c.out)
	if err != nil {
		return "", fmt.Errorf("не удалось прочитать пароль: %w", err)
	}
	return string(pw), nil
}

// printError единая точка вывода ошибок: закрытая таксономия
// (валидация / домен / инфраструктура), цикл продолжается при любой.
func (c *CLI) printError(err error) {
	var apiErr *custom_err.APIRequestError
	switch {
	case errors.Is(err, custom_err.ErrInvalidInput),
		errors.Is(err, custom_err.ErrInvalidAmount):
		fmt.Fprintln(c.out, err)
	case errors.Is(err, custom_err.ErrNotAuthenticated):
		fmt.Fprintln(c.out, "Сначала выполните login")
	case errors.Is(err, custom_err.ErrInvalidCredentials),
		errors.Is(err, custom_err.ErrUsernameTaken),
		errors.Is(err, custom_err.ErrUserNotFound),
		errors.Is(err, custom_err.ErrInvalidToken),
		errors.Is(err, custom_err.ErrInsufficientFunds),
		errors.Is(err, custom_err.ErrWalletNotFound),
		errors.Is(err, custom_err.ErrInvalidCurrency):
		fmt.Fprintln(c.out, err)
	case errors.Is(err, custom_err.ErrStaleRate):
		fmt.Fprintln(c.out, "Курс недоступен: кэш устарел, попробуйте update-rates")
	case errors.Is(err, custom_err.ErrRateUnavailable):
		fmt.Fprintln(c.out, err)
	case errors.As(err, &apiErr):
		fmt.Fprintln(c.out, err)
	default:
		c.log.Error("неожиданная ошибка", slog.String("error", err.Error()))
		fmt.Fprintf(c.out, "Неожиданная ошибка: %v\n", err)
	}
}

func (c *CLI) printHelp(command string) {
	helps := []struct{ name, usage string }{
		{"register", "register --username <username> [--password <password>]"},
		{"login", "login --username <username> [--password <password>]"},
		{"logout", "logout"},
		{"whoami", "whoami"},
		{"change-password", "change-password --old <старый> --new <новый>"},
		{"buy", "buy --currency <currency> --amount <amount>"},
		{"sell", "sell --currency <currency> --amount <amount>"},
		{"deposit", "deposit --amount <amount>"},
		{"show-portfolio", fmt.Sprintf("show-portfolio [--base <base> = %s]", c.baseCurrency)},
		{"get-rate", "get-rate --from <from currency> --to <to currency>"},
		{"update-rates", fmt.Sprintf("update-rates [--source <%s>]", strings.Join(c.registry.Names(), "|"))},
		{"show-rates", "show-rates"},
		{"help", "help [--command <command>]"},
		{"exit", "exit"},
	}

	if command != "" {
		for _, h := range helps {
			if h.name == command {
				fmt.Fprintln(c.out, h.usage)
				return
			}
		}
	}

	fmt.Fprintln(c.out, "Доступные команды:")
	for _, h := range helps {
		fmt.Fprintf(c.out, "  %-16s → %s\n", h.name, h.usage)
	}
}
