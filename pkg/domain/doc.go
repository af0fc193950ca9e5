/*
Package domain contains the core domain models of the Polya tutorial engine.

It defines the immutable exercise content and the mutable Session value that
tracks one attempt at an exercise. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Exercise: A static problem-solving scenario broken into ordered Steps.
  - Step: One stage of the four-step method (understand, plan, execute, review).
  - Session: The runtime snapshot of one attempt (active step, answers, hints, score).
  - View: A read-only projection of a Session that a presentation layer renders.
*/
package domain
