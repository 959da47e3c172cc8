// Package markup turns template markup into a vdom.Tree.
//
// Tokenizing is delegated to a push-style Tokenizer that reports open-tag,
// text and close-tag events in document order. HTMLTokenizer adapts the
// golang.org/x/net/html tokenizer to that contract. Builder consumes the
// events with an explicit open-element stack and produces the flattened node
// list in a single linear pass.
//
// Control tags are written with an @ sigil:
//
//	<ul>
//	  <@foreach target="items" key="i" value="item">
//	    <li key="{{item}}">{{item}}</li>
//	  </@foreach>
//	</ul>
//
// The same directives are accepted in attribute form, where they wrap the
// element that carries them:
//
//	<li @foreach target="items" key="i" value="v">{{v}}</li>
//	<p @if="count > 0">{{count}} items</p>
//
// In attribute form the target, key and value attributes belong to the loop,
// so the element cannot also carry a reconciliation key.
//
// Markup is assumed to be well formed and explicitly closed, except for HTML
// void elements such as <br> and <img>. Unbalanced tags are build errors.
package markup
