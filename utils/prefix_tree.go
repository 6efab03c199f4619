package utils

// StringPrefixTree stores token phrases so that the longest phrase starting
// at a token position can be found in a single walk.
type StringPrefixTree struct {
	root *StringPrefixTreeNode
	size int
}

type StringPrefixTreeNode struct {
	Value    string
	Terminal bool
	Children map[string]*StringPrefixTreeNode
}

func NewStringPrefixTree() *StringPrefixTree {
	return &StringPrefixTree{root: &StringPrefixTreeNode{}}
}

// Add registers a phrase. Adding the same phrase twice keeps the first value.
func (pTree *StringPrefixTree) Add(tokens []string, value string) {
	if len(tokens) == 0 || len(value) == 0 {
		return
	}

	node := pTree.root
	for _, token := range tokens {
		if node.Children == nil {
			node.Children = make(map[string]*StringPrefixTreeNode)
		}
		child, ok := node.Children[token]
		if !ok {
			child = &StringPrefixTreeNode{}
			node.Children[token] = child
		}
		node = child
	}

	if node.Terminal {
		return
	}
	node.Terminal = true
	node.Value = value
	pTree.size++
}

func (pTree *StringPrefixTree) Len() int {
	return pTree.size
}

// LongestMatch returns how many leading tokens form the longest stored phrase
// and that phrase's value. Zero means no phrase starts at tokens[0].
func (pTree *StringPrefixTree) LongestMatch(tokens []string) (int, string) {
	node := pTree.root
	length := 0
	value := ""
	for i, token := range tokens {
		child, ok := node.Children[token]
		if !ok {
			break
		}
		node = child
		if node.Terminal {
			length = i + 1
			value = node.Value
		}
	}
	return length, value
}

// Walk calls fn for every stored phrase that is a prefix of tokens, shortest
// first.
func (pTree *StringPrefixTree) Walk(tokens []string, fn func(length int, value string)) {
	node := pTree.root
	for i, token := range tokens {
		child, ok := node.Children[token]
		if !ok {
			return
		}
		node = child
		if node.Terminal {
			fn(i+1, node.Value)
		}
	}
}
