package mnemonic

// 256 curated words: short, concrete, unambiguous over the phone. One byte
// of phrase data maps to one word.
var wordlist = []string{
	// 0-31
	"acorn", "alder", "amber", "anchor", "apron", "arrow", "aspen", "atlas",
	"badge", "bamboo", "barley", "basil", "beacon", "birch", "bison", "bloom",
	"bluff", "boulder", "bramble", "brook", "bugle", "butte", "cabin", "camel",
	"canoe", "canyon", "carob", "cedar", "chalk", "cherry", "cider", "clover",
	// 32-63
	"cobble", "comet", "coral", "cotton", "cove", "crane", "creek", "cricket",
	"crocus", "cumin", "cypress", "daisy", "dapple", "delta", "dew", "dingo",
	"dory", "dove", "drake", "drum", "dusk", "eagle", "earth", "ebony",
	"elm", "ember", "ermine", "fable", "falcon", "fennel", "fern", "fig",
	// 64-95
	"finch", "fjord", "flint", "fog", "forge", "fox", "frost", "gale",
	"garnet", "gecko", "geyser", "ginger", "glade", "glen", "gorge", "gourd",
	"grain", "grove", "gull", "gust", "harbor", "hawk", "hazel", "heron",
	"hickory", "hilltop", "holly", "honey", "hoof", "husk", "ibis", "inlet",
	// 96-127
	"iris", "ivory", "ivy", "jade", "jasmine", "jasper", "jetty", "juniper",
	"kelp", "kettle", "kiln", "kiwi", "knoll", "lagoon", "lark", "laurel",
	"lava", "leaf", "ledge", "lemon", "lichen", "lilac", "lily", "linden",
	"loam", "locust", "lotus", "lumber", "lynx", "magma", "maple", "marble",
	// 128-159
	"marsh", "mason", "meadow", "mesa", "mica", "mint", "mirror", "mole",
	"moss", "moth", "mulch", "myrtle", "nectar", "nettle", "newt", "nutmeg",
	"oak", "oasis", "ocean", "ochre", "olive", "onyx", "opal", "orchard",
	"osprey", "otter", "owl", "ox", "pebble", "pecan", "peony", "pier",
	// 160-191
	"pine", "pistachio", "plume", "pond", "poplar", "poppy", "prairie", "primrose",
	"puffin", "pumice", "quail", "quarry", "quartz", "quill", "quince", "raft",
	"rain", "rapids", "raven", "reed", "ridge", "river", "robin", "rowan",
	"rye", "saffron", "sage", "salmon", "sandbar", "sapling", "seal", "sedge",
	// 192-223
	"shale", "shell", "shoal", "shore", "shrub", "sierra", "silt", "slate",
	"sleet", "sorrel", "sparrow", "spruce", "squall", "squash", "stag", "stone",
	"stork", "strand", "stream", "summit", "sumac", "swale", "swan", "sycamore",
	"taiga", "talon", "tamarind", "tansy", "teal", "terra", "thicket", "thistle",
	// 224-255
	"thyme", "timber", "topaz", "trout", "tulip", "tundra", "turnip", "umber",
	"upland", "valley", "verbena", "vetch", "vine", "violet", "wagon", "walnut",
	"wasp", "water", "wheat", "willow", "windrow", "winter", "wolf", "wren",
	"yarrow", "yew", "yucca", "zebra", "zenith", "zephyr", "zinnia", "zircon",
}

var wordIndex = func() map[string]byte {
	m := make(map[string]byte, len(wordlist))
	for i, w := range wordlist {
		m[w] = byte(i)
	}
	return m
}()
