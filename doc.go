/*
Package parsetrail replays parsing traces step by step.

A parsing service turns a sentence and a grammar into an ordered list of
steps (expand, leaf, shift, reduce). parsetrail stores that trace in a
session, keeps a cursor over it, and rebuilds the derivation visible at the
cursor: a single tree for top-down strategies, or a stack of partial trees
for bottom-up ones. Rebuilding always starts from scratch, so moving the
cursor backwards is as cheap as moving it forwards.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/parsetrail"
		"github.com/aretw0/parsetrail/pkg/adapters/parseapi"
	)

	func main() {
		p := parsetrail.New(parseapi.New(parseapi.DefaultEndpoint))

		ctx := context.Background()
		view, err := p.Parse(ctx, "demo", parsetrail.Input{
			Sentence: "the cat",
			Grammar:  "np --> det,n\ndet --> [the]\nn --> [cat]",
			Strategy: "top-down",
		})
		if err != nil {
			log.Fatal(err)
		}
		log.Println(view.Indicator)

		for {
			view, moved, err := p.Next(ctx, "demo")
			if err != nil {
				log.Fatal(err)
			}
			if !moved {
				break
			}
			log.Println(view.History[view.Cursor])
		}
	}

Sessions live in memory unless WithStore injects another ports.SessionStore
(file, Redis, or either wrapped in the encryption middleware).
*/
package parsetrail
