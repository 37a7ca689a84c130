package logger

import "fmt"

type Logger interface {
	Debug(log ...any)
	Info(log ...any)
	Error(log ...any)
}

type PrefixedLogger struct {
	Prefix string
}

func (pl PrefixedLogger) Debug(log ...any) {
	fmt.Println(append([]any{"[" + pl.Prefix + "] DEBUG:"}, log...)...)
}

func (pl PrefixedLogger) Info(log ...any) {
	fmt.Println(append([]any{"[" + pl.Prefix + "] INFO:"}, log...)...)
}

func (pl PrefixedLogger) Error(log ...any) {
	fmt.Println(append([]any{"[" + pl.Prefix + "] ERROR:"}, log...)...)
}

var _ Logger = &PrefixedLogger{}
