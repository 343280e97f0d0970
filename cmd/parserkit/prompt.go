package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// configForm asks for plugin config values the user has not supplied.
// Values are collected as raw strings and booleans for config.Resolve.
type configForm struct {
	fields  []huh.Field
	collect []func(raw map[string]any)
}

// newConfigForm builds one field per schema item that is not in preset,
// prefilled with the declared default.
func newConfigForm(schemas []parsersdk.ConfigSchemaItem, preset map[string]any) *configForm {
	f := &configForm{}
	for _, item := range schemas {
		if _, ok := preset[item.ID]; ok {
			continue
		}
		f.add(item)
	}
	return f
}

func (f *configForm) add(item parsersdk.ConfigSchemaItem) {
	id := item.ID
	switch in := item.Input.(type) {
	case parsersdk.BooleanInput:
		value := in.Default
		f.fields = append(f.fields, huh.NewConfirm().
			Title(item.Title).
			Description(description(item)).
			Value(&value))
		f.collect = append(f.collect, func(raw map[string]any) { raw[id] = value })

	case parsersdk.DropdownInput:
		value := in.Default
		f.fields = append(f.fields, huh.NewSelect[string]().
			Title(item.Title).
			Description(description(item)).
			Options(huh.NewOptions(in.Options...)...).
			Value(&value))
		f.collect = append(f.collect, func(raw map[string]any) { raw[id] = value })

	case parsersdk.IntegerInput:
		value := strconv.FormatInt(int64(in.Default), 10)
		f.fields = append(f.fields, f.input(item, &value, validateInteger))
		f.collect = append(f.collect, func(raw map[string]any) { raw[id] = value })

	case parsersdk.FloatInput:
		value := strconv.FormatFloat(float64(in.Default), 'g', -1, 32)
		f.fields = append(f.fields, f.input(item, &value, validateFloat))
		f.collect = append(f.collect, func(raw map[string]any) { raw[id] = value })

	case parsersdk.FilesInput, parsersdk.DirectoriesInput:
		var value string
		input := f.input(item, &value, nil)
		if files, ok := in.(parsersdk.FilesInput); ok && len(files.Extensions) > 0 {
			input.Placeholder("comma-separated ." + strings.Join(files.Extensions, ", .") + " files")
		} else {
			input.Placeholder("comma-separated paths")
		}
		f.fields = append(f.fields, input)
		f.collect = append(f.collect, func(raw map[string]any) { raw[id] = value })

	case parsersdk.TextInput:
		value := in.Default
		f.fields = append(f.fields, f.input(item, &value, nil))
		f.collect = append(f.collect, func(raw map[string]any) { raw[id] = value })
	}
}

func (f *configForm) input(item parsersdk.ConfigSchemaItem, value *string, validate func(string) error) *huh.Input {
	input := huh.NewInput().
		Title(item.Title).
		Description(description(item)).
		Value(value)
	if validate != nil {
		input.Validate(validate)
	}
	return input
}

// Empty reports whether there is nothing to ask.
func (f *configForm) Empty() bool {
	return len(f.fields) == 0
}

// Run shows the form on the terminal.
func (f *configForm) Run() error {
	if f.Empty() {
		return nil
	}
	if err := huh.NewForm(huh.NewGroup(f.fields...)).Run(); err != nil {
		return fmt.Errorf("config prompt: %w", err)
	}
	return nil
}

// Values returns the current field values keyed by config ID.
func (f *configForm) Values() map[string]any {
	raw := make(map[string]any, len(f.collect))
	for _, c := range f.collect {
		c(raw)
	}
	return raw
}

func description(item parsersdk.ConfigSchemaItem) string {
	if item.Description == nil {
		return ""
	}
	return *item.Description
}

func validateInteger(s string) error {
	if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32); err != nil {
		return fmt.Errorf("enter a whole number")
	}
	return nil
}

func validateFloat(s string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 32); err != nil {
		return fmt.Errorf("enter a number")
	}
	return nil
}
