package compiler

// classCompiler tracks whether a class is currently being compiled and
// whether it declared a superclass, so `this` and `super` can be validated
// and so the synthetic `super` local can be emitted only when needed (spec
// §4.2, §7 "can't use 'this'/'super' ...").
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}
