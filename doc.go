/*
relay runs independent jobs on a bounded pool of goroutines and lets them report progress while they run.

Each job receives a Handle. Through it, the job may send generic messages (SendMessage) or log lines (Info, Error,
Warn, Debug...). Messages go through a single unbounded Channel to one Listener, which calls the user handlers as
soon as messages arrive, not after the jobs complete. Job return values do not go through the channel: each job
resolves its own Future, and Run returns the results in submission order.

For instance:

  - N jobs are submitted to a Supervisor with W workers. At most W jobs run at once.
  - While running, each job sends some progress messages. They are queued in the Channel without ever waiting
    for the Listener.
  - The Listener drains the Channel and dispatches each message: log messages to the LogHandler if any, everything
    else (log messages included, when there is no LogHandler) to the MessageHandler.
  - Once every job is submitted, the Supervisor is closed. Run then polls the running jobs, and only them, until
    none is left. Only then the pool is joined and the results are collected.
  - Finally the Channel is closed and the Listener delivers what is left before stopping.

The order of the shutdown matters. The channel and its listener must outlive every worker: a worker sending its
last message to a channel being torn down would fail, or, with a blocking transport, never return while the
supervisor waits for it. Hence the two phases of a Run: the channel is created first and closed last, the workers
are started after it and awaited before it is closed.

Handler errors are classified. An error marked with Fatal, a context cancellation or a context deadline stops the
Listener and makes Run fail. Any other error, or a panic, is reported on the diagnostic logger and the next message
is delivered as usual.

A failed job (error or panic) only fails its own Result. A job whose Handle could not send a message fails with
ErrChannelClosed even if it ignored the send error.

Message ordering between different jobs is not guaranteed. Log messages carry a timestamp to approximate it.
*/

package relay
