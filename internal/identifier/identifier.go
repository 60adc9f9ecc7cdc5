// Package identifier produces the human-facing random values used by the
// SIP bridge: conference PINs and readable conversation names.
package identifier

import (
	"fmt"
	"math/rand"
)

var adjectives = []string{
	"brave", "calm", "clever", "eager", "fuzzy", "gentle", "happy",
	"jolly", "lucky", "mellow", "nimble", "proud", "quick", "quiet",
	"shiny", "swift", "witty", "zesty",
}

var colors = []string{
	"amber", "azure", "coral", "crimson", "golden", "indigo", "ivory",
	"jade", "maroon", "olive", "pearl", "scarlet", "silver", "teal",
	"violet",
}

var animals = []string{
	"badger", "bison", "falcon", "gecko", "heron", "ibex", "jackal",
	"lemur", "marmot", "otter", "panda", "puffin", "raven", "tapir",
	"walrus", "wombat",
}

// PIN returns a uniformly distributed 4-digit conference PIN in
// [1000, 9999].
func PIN() int {
	return 1000 + rand.Intn(9000)
}

// ConversationName returns a readable adjective-color-animal triple such
// as "swift-amber-otter".
func ConversationName() string {
	return fmt.Sprintf("%s-%s-%s",
		adjectives[rand.Intn(len(adjectives))],
		colors[rand.Intn(len(colors))],
		animals[rand.Intn(len(animals))],
	)
}
