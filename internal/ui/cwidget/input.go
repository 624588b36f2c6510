package cwidget

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

var ErrNotPositive = errors.New("must be a positive integer")

// Input is a labelled entry that parses its text into T and shows the
// parse error underneath instead of calling OnChanged.
type Input[T any] struct {
	widget.BaseWidget

	labelWidget *widget.Label
	entryWidget *widget.Entry
	errorWidget *widget.Label

	LabelText string
	Value     T

	OnChanged func(T)
	Validator func(string) (T, error)
	Format    func(T) string
}

func newInput[T any](label, placeholder string, value T, format func(T) string) *Input[T] {
	input := &Input[T]{
		LabelText: label,
		Value:     value,
		Format:    format,
	}

	input.labelWidget = widget.NewLabel("")
	input.labelWidget.TextStyle = fyne.TextStyle{Bold: true}

	input.entryWidget = widget.NewEntry()
	input.entryWidget.SetPlaceHolder(placeholder)

	input.errorWidget = widget.NewLabel("")
	input.errorWidget.Hidden = true
	input.errorWidget.TextStyle = fyne.TextStyle{Italic: true}
	input.errorWidget.Importance = widget.DangerImportance

	input.entryWidget.OnChanged = input.handleChanged
	input.refreshLabel()
	input.ExtendBaseWidget(input)

	return input
}

// NewIntInput accepts positive integers; an empty entry keeps the current
// value.
func NewIntInput(label, placeholder string, value int, onChanged func(int)) *Input[int] {
	input := newInput(label, placeholder, value, strconv.Itoa)
	input.OnChanged = onChanged
	input.Validator = func(s string) (int, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return input.Value, nil
		}

		res, err := strconv.Atoi(s)
		if err != nil || res <= 0 {
			return input.Value, ErrNotPositive
		}
		return res, nil
	}
	return input
}

func (item *Input[T]) handleChanged(s string) {
	res, err := item.Validator(s)
	item.SetError(err)
	if err != nil {
		return
	}

	item.Value = res
	item.refreshLabel()
	if item.OnChanged != nil {
		item.OnChanged(res)
	}
}

func (item *Input[T]) refreshLabel() {
	item.labelWidget.SetText(fmt.Sprintf("%s: %s", item.LabelText, item.Format(item.Value)))
}

func (item *Input[T]) CreateRenderer() fyne.WidgetRenderer {
	c := container.NewVBox(
		item.labelWidget,
		item.entryWidget,
		item.errorWidget,
	)

	return widget.NewSimpleRenderer(c)
}

func (item *Input[T]) SetError(err error) {
	item.errorWidget.Hidden = err == nil
	if err != nil {
		item.errorWidget.SetText(err.Error())
	}
	item.errorWidget.Refresh()
}

// ErrorText is the message currently shown, empty when the input is valid.
func (item *Input[T]) ErrorText() string {
	if item.errorWidget.Hidden {
		return ""
	}
	return item.errorWidget.Text
}

func (item *Input[T]) SetText(text string) {
	item.entryWidget.SetText(text)
}
