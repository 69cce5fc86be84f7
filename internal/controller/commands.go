// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"strings"
)

// Tutor is the remote service as the controller sees it.
// *tutor.Client satisfies it.
type Tutor interface {
	Ask(ctx context.Context, question string) (string, error)
	AnalyzeCode(ctx context.Context, code string) (string, error)
	GenerateExercises(ctx context.Context, topic string) (string, error)
	ExplainConcept(ctx context.Context, concept string) (string, error)
}

// Tool selects which tutor endpoint answers a message.
type Tool int

const (
	ToolAsk Tool = iota
	ToolAnalyze
	ToolExercises
	ToolExplain
)

// String returns the tool's endpoint name.
func (t Tool) String() string {
	switch t {
	case ToolAnalyze:
		return "analyze-code"
	case ToolExercises:
		return "generate-exercises"
	case ToolExplain:
		return "explain-concept"
	default:
		return "ask"
	}
}

// Command describes a slash command.
type Command struct {
	Name string
	Tool Tool
	Help string
}

// Commands lists the slash commands in help order.
var Commands = []Command{
	{Name: "/analyze", Tool: ToolAnalyze, Help: "review a Dart or Flutter snippet"},
	{Name: "/exercises", Tool: ToolExercises, Help: "practice exercises on a topic"},
	{Name: "/explain", Tool: ToolExplain, Help: "explain a concept"},
}

// ParseCommand splits input into a tool and its argument. Input that is
// not a known slash command is a plain question.
func ParseCommand(input string) (Tool, string) {
	trimmed := strings.TrimSpace(input)
	name, arg, _ := strings.Cut(trimmed, " ")
	if nl := strings.IndexByte(name, '\n'); nl >= 0 {
		name, arg = name[:nl], trimmed[nl+1:]
	}
	for _, cmd := range Commands {
		if strings.EqualFold(name, cmd.Name) {
			return cmd.Tool, strings.TrimSpace(arg)
		}
	}
	return ToolAsk, trimmed
}

// Asker returns the tutor method that answers t.
func (t Tool) Asker(tut Tutor) func(context.Context, string) (string, error) {
	switch t {
	case ToolAnalyze:
		return tut.AnalyzeCode
	case ToolExercises:
		return tut.GenerateExercises
	case ToolExplain:
		return tut.ExplainConcept
	default:
		return tut.Ask
	}
}
