// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package testutil

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Fixture sizes.
const (
	SamRaimiMovies = 15
	TomHanksMovies = 10
)

type movie struct {
	title     string
	year      int
	directors bson.A
	cast      bson.A
}

// Stored deliberately out of year order so that unsorted and sorted results
// differ. Sam Raimi years are unique; several Tom Hanks films share a year so
// the title breaks the tie.
var movies = []movie{
	{"Spider-Man 2", 2004, bson.A{"Sam Raimi"}, bson.A{"Tobey Maguire", "Kirsten Dunst", "James Franco", "Alfred Molina"}},
	{"Forrest Gump", 1994, bson.A{"Robert Zemeckis"}, bson.A{"Tom Hanks", "Rebecca Williams", "Sally Field", "Michael Conner Humphreys"}},
	{"The Evil Dead", 1981, bson.A{"Sam Raimi"}, bson.A{"Bruce Campbell", "Ellen Sandweiss", "Richard DeManincor", "Betsy Baker"}},
	{"Sleepless in Seattle", 1993, bson.A{"Nora Ephron"}, bson.A{"Tom Hanks", "Ross Malinger", "Rob Reiner", "Meg Ryan"}},
	{"Darkman", 1990, bson.A{"Sam Raimi"}, bson.A{"Liam Neeson", "Frances McDormand", "Colin Friels", "Larry Drake"}},
	{"A Simple Plan", 1998, bson.A{"Sam Raimi"}, bson.A{"Bill Paxton", "Billy Bob Thornton", "Bridget Fonda", "Gary Cole"}},
	{"Big", 1988, bson.A{"Penny Marshall"}, bson.A{"Tom Hanks", "Elizabeth Perkins", "Robert Loggia", "John Heard"}},
	{"Drag Me to Hell", 2009, bson.A{"Sam Raimi"}, bson.A{"Alison Lohman", "Justin Long", "Lorna Raver", "Dileep Rao"}},
	{"Crimewave", 1985, bson.A{"Sam Raimi"}, bson.A{"Louise Lasser", "Paul L. Smith", "Brion James", "Sheree J. Wilson"}},
	{"Toy Story", 1995, bson.A{"John Lasseter"}, bson.A{"Tom Hanks", "Tim Allen", "Don Rickles", "Jim Varney"}},
	{"Spider-Man", 2002, bson.A{"Sam Raimi"}, bson.A{"Tobey Maguire", "Willem Dafoe", "Kirsten Dunst", "James Franco"}},
	{"The Quick and the Dead", 1995, bson.A{"Sam Raimi"}, bson.A{"Sharon Stone", "Gene Hackman", "Russell Crowe", "Leonardo DiCaprio"}},
	{"Philadelphia", 1993, bson.A{"Jonathan Demme"}, bson.A{"Tom Hanks", "Denzel Washington", "Roberta Maxwell", "Buzz Kilman"}},
	{"Evil Dead II", 1987, bson.A{"Sam Raimi"}, bson.A{"Bruce Campbell", "Sarah Berry", "Dan Hicks", "Kassie Wesley DePaiva"}},
	{"The Gift", 2000, bson.A{"Sam Raimi"}, bson.A{"Cate Blanchett", "Giovanni Ribisi", "Keanu Reeves", "Katie Holmes"}},
	{"Saving Private Ryan", 1998, bson.A{"Steven Spielberg"}, bson.A{"Tom Hanks", "Tom Sizemore", "Edward Burns", "Barry Pepper"}},
	{"Army of Darkness", 1992, bson.A{"Sam Raimi"}, bson.A{"Bruce Campbell", "Embeth Davidtz", "Marcus Gilbert", "Ian Abercrombie"}},
	{"Punchline", 1988, bson.A{"David Seltzer"}, bson.A{"Sally Field", "Tom Hanks", "John Goodman", "Mark Rydell"}},
	{"Oz the Great and Powerful", 2013, bson.A{"Sam Raimi"}, bson.A{"James Franco", "Mila Kunis", "Rachel Weisz", "Michelle Williams"}},
	{"Apollo 13", 1995, bson.A{"Ron Howard"}, bson.A{"Tom Hanks", "Bill Paxton", "Kevin Bacon", "Gary Sinise"}},
	{"For Love of the Game", 1999, bson.A{"Sam Raimi"}, bson.A{"Kevin Costner", "Kelly Preston", "John C. Reilly", "Jena Malone"}},
	{"Spider-Man 3", 2007, bson.A{"Sam Raimi"}, bson.A{"Tobey Maguire", "Kirsten Dunst", "Topher Grace", "Thomas Haden Church"}},
	{"You've Got Mail", 1998, bson.A{"Nora Ephron"}, bson.A{"Tom Hanks", "Meg Ryan", "Greg Kinnear", "Parker Posey"}},
	{"Doctor Strange in the Multiverse of Madness", 2022, bson.A{"Sam Raimi"}, bson.A{"Benedict Cumberbatch", "Elizabeth Olsen", "Chiwetel Ejiofor", "Benedict Wong"}},
	{"Cast Away", 2000, bson.A{"Robert Zemeckis"}, bson.A{"Tom Hanks", "Helen Hunt", "Nick Searcy", "Chris Noth"}},
	{"Jurassic Park", 1993, bson.A{"Steven Spielberg"}, bson.A{"Sam Neill", "Laura Dern", "Jeff Goldblum", "Richard Attenborough"}},
}

// Movies returns the fixture documents in storage order, each with an integer
// _id.
func Movies() []interface{} {
	docs := make([]interface{}, 0, len(movies))
	for i, m := range movies {
		docs = append(docs, bson.D{
			{"_id", i + 1},
			{"title", m.title},
			{"year", m.year},
			{"directors", m.directors},
			{"cast", m.cast},
		})
	}
	return docs
}
