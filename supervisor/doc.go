/*
Package supervisor launches the backend ("server") and frontend ("client") dev servers as child processes and stops them on interrupt.

A run proceeds as follows:

1. Optionally, the install command runs in the backend dir and then the frontend dir. The first failure stops the run and is returned as an *InstallError carrying the command's exit code.
2. The run command is started in each dir, and fixed operator text describing the expected addresses and endpoints is printed. Nothing checks that the children actually listen there.
3. The supervisor waits for both children to exit, in whatever order they finish.
4. If the context is canceled while waiting, both children are sent SIGTERM and Run returns nil. It only waits for them (and then kills stragglers) if Config.StopTimeout is set.
*/
package supervisor
